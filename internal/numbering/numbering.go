// Package numbering generates date-scoped sequential document numbers.
// A number is the document date as an 8-digit prefix followed by a
// 4-digit sequence, e.g. 202501230007.
//
// The scan-then-insert pattern this implies is racy, so allocation is
// serialized per (source type, date) key: callers wrap the whole
// allocate-and-insert in Serialize. The unique index on
// (order_source, order_number) is the backstop if two processes share the
// database file.
package numbering

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/bookline/orders-api/internal/types"
)

const sequenceSpan = 10000 // 4-digit sequence per day and source type

// Service hands out document numbers.
type Service struct {
	locks sync.Map // "source:prefix" -> *sync.Mutex
}

func NewService() *Service {
	return &Service{}
}

// DateString renders a document date the way it is stored on orders.
func DateString(t time.Time) string {
	return t.Format("2006/01/02")
}

func prefixFor(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// Serialize runs fn while holding the allocation lock for the given
// source type and date. The lock must cover both the NextNumber scan and
// the insert of the numbered row.
func (s *Service) Serialize(source types.SourceType, date time.Time, fn func() error) error {
	key := source.String() + ":" + DateString(date)
	actual, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := actual.(*sync.Mutex)

	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// NextNumber computes the next document number for the source type and
// date, scanning existing orders on the given handle (which may be a
// transaction). The sequence starts at 1 when no number exists for the
// day.
func (s *Service) NextNumber(tx *gorm.DB, source types.SourceType, date time.Time) (int64, error) {
	prefix := prefixFor(date)
	low := prefix * sequenceSpan
	high := low + sequenceSpan - 1

	var max *int64
	err := tx.Model(&types.Order{}).
		Select("MAX(order_number)").
		Where("order_source = ? AND order_number BETWEEN ? AND ?", source, low, high).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}

	if max == nil || *max == 0 {
		return low + 1, nil
	}
	return *max + 1, nil
}
