package repositories

import (
	"fmt"
	"mail-route-tracker/internal/domain"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
)

// Firestore field names. They match the JSON document shape so a collection export
// can be fed straight back into SeedFromJSON.
const (
	fieldName           = "name"
	fieldArea           = "area"
	fieldIsBig          = "isBig"
	fieldLastDelivered  = "lastDelivered"
	fieldDeliveryTimes  = "deliveryTimes"
	fieldAverageTime    = "averageTime"
	fieldCycleStartDate = "cycleStartDate"
)

// encodeStreet converts a street to the map written to its document. The id is the
// document id and is not stored as a field.
func encodeStreet(s *domain.Street) map[string]interface{} {
	times := s.DeliveryTimes
	if times == nil {
		times = []int{}
	}

	data := map[string]interface{}{
		fieldName:           s.Name,
		fieldArea:           s.Area,
		fieldIsBig:          s.IsBig,
		fieldLastDelivered:  nil,
		fieldDeliveryTimes:  times,
		fieldAverageTime:    nil,
		fieldCycleStartDate: nil,
	}
	if s.LastDelivered != nil {
		data[fieldLastDelivered] = domain.FormatTimestamp(s.LastDelivered)
	}
	if s.AverageTime != nil {
		data[fieldAverageTime] = *s.AverageTime
	}
	if s.CycleStartDate != nil {
		data[fieldCycleStartDate] = domain.FormatTimestamp(s.CycleStartDate)
	}
	return data
}

// decodeStreet reads a document map written by this service or by older clients.
// Older documents may store timestamps as native Firestore timestamps and numbers
// as doubles, and some carry the area as a number.
func decodeStreet(id string, data map[string]interface{}) (*domain.Street, error) {
	s := &domain.Street{ID: id}

	s.Name = asString(data[fieldName])
	s.Area = asString(data[fieldArea])
	if b, ok := data[fieldIsBig].(bool); ok {
		s.IsBig = b
	}

	s.LastDelivered = asTimestamp(data[fieldLastDelivered])
	s.CycleStartDate = asTimestamp(data[fieldCycleStartDate])

	switch raw := data[fieldDeliveryTimes].(type) {
	case nil:
	case []interface{}:
		s.DeliveryTimes = make([]int, 0, len(raw))
		for i, v := range raw {
			n, ok := asInt(v)
			if !ok {
				return nil, fmt.Errorf("street %q: deliveryTimes[%d]: unexpected type %T", id, i, v)
			}
			s.DeliveryTimes = append(s.DeliveryTimes, n)
		}
	default:
		return nil, fmt.Errorf("street %q: deliveryTimes: unexpected type %T", id, raw)
	}

	if len(s.DeliveryTimes) > 0 {
		s.AverageTime = domain.AverageMinutes(s.DeliveryTimes)
	} else if n, ok := asInt(data[fieldAverageTime]); ok {
		s.AverageTime = &n
	}

	return s, nil
}

// patchUpdates turns a patch into field updates. applied is the street after the
// patch, used for the derived average.
func patchUpdates(patch domain.StreetPatch, applied *domain.Street) []firestore.Update {
	var updates []firestore.Update

	switch {
	case patch.ClearLastDelivered:
		updates = append(updates, firestore.Update{Path: fieldLastDelivered, Value: firestore.Delete})
	case patch.LastDelivered != nil:
		updates = append(updates, firestore.Update{Path: fieldLastDelivered, Value: domain.FormatTimestamp(patch.LastDelivered)})
	}

	// applied was read inside the transaction, so an appended sample lands on the
	// stored history rather than the caller's copy
	samples := patch.DeliveryTimes != nil || patch.AppendSample != nil
	if samples {
		updates = append(updates, firestore.Update{Path: fieldDeliveryTimes, Value: applied.DeliveryTimes})
	}
	if samples || patch.AverageTime != nil {
		if applied.AverageTime != nil {
			updates = append(updates, firestore.Update{Path: fieldAverageTime, Value: *applied.AverageTime})
		} else {
			updates = append(updates, firestore.Update{Path: fieldAverageTime, Value: firestore.Delete})
		}
	}

	if patch.CycleStartDate != nil {
		updates = append(updates, firestore.Update{Path: fieldCycleStartDate, Value: domain.FormatTimestamp(patch.CycleStartDate)})
	}

	return updates
}

func asString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func asInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int64:
		return int(x), true
	case int:
		return x, true
	case float64:
		return int(math.Round(x)), true
	default:
		return 0, false
	}
}

func asTimestamp(v interface{}) *time.Time {
	switch x := v.(type) {
	case string:
		return domain.ParseTimestamp(x)
	case time.Time:
		if x.IsZero() {
			return nil
		}
		t := x.UTC()
		return &t
	default:
		return nil
	}
}
