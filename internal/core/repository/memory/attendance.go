package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/duynhne/attendance-service/internal/core/domain"
)

type bucketKey struct {
	classID string
	dateKey string
}

// AttendanceRepository is a map-backed domain.AttendanceRepository.
type AttendanceRepository struct {
	mu      sync.Mutex
	buckets map[bucketKey][]domain.AttendanceRecord
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{buckets: make(map[bucketKey][]domain.AttendanceRecord)}
}

func (r *AttendanceRepository) Append(_ context.Context, classID, dateKey string, rec domain.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := bucketKey{classID, dateKey}
	r.buckets[k] = append(r.buckets[k], rec)
	return nil
}

func (r *AttendanceRepository) AppendUnique(_ context.Context, classID, dateKey string, rec domain.AttendanceRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := bucketKey{classID, dateKey}
	for _, existing := range r.buckets[k] {
		if existing.RollNo == rec.RollNo {
			return false, nil
		}
	}
	r.buckets[k] = append(r.buckets[k], rec)
	return true, nil
}

func (r *AttendanceRepository) ListRecords(_ context.Context, classID, dateKey string) ([]domain.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.buckets[bucketKey{classID, dateKey}]), nil
}

func (r *AttendanceRepository) ListDateKeys(_ context.Context, classID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := []string{}
	for k := range r.buckets {
		if k.classID == classID {
			keys = append(keys, k.dateKey)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// BucketCount returns the number of buckets across all classes.
func (r *AttendanceRepository) BucketCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
