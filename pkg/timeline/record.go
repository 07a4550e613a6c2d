package timeline

import (
	"encoding/json"
	"strconv"
)

// Record is the wire schema of one timestamp log line. Unknown fields are
// ignored.
type Record struct {
	TimestampID string      `json:"timestampID"`
	Time        json.Number `json:"time"`
	ContainerID string      `json:"containerID"`
}

// DecodeRecord decodes one log line into a Record. The label and time fields
// are required and the time must be a non-negative integer.
func DecodeRecord(line string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Record{}, &MalformedRecordError{Raw: line, Reason: "not a structured record", Err: err}
	}

	if rec.TimestampID == "" {
		return Record{}, &MalformedRecordError{Raw: line, Reason: "missing timestampID"}
	}

	if rec.Time == "" {
		return Record{}, &MalformedRecordError{Raw: line, Reason: "missing time"}
	}

	value, err := strconv.ParseInt(rec.Time.String(), 10, 64)
	if err != nil {
		return Record{}, &MalformedRecordError{Raw: line, Reason: "time is not an integer", Err: err}
	}
	if value < 0 {
		return Record{}, &MalformedRecordError{Raw: line, Reason: "time is negative"}
	}

	return rec, nil
}

// Timestamp returns the timestamp carried by a decoded record.
func (r Record) Timestamp() Timestamp {
	// DecodeRecord already validated the value.
	value, _ := strconv.ParseInt(r.Time.String(), 10, 64)
	return Timestamp{ID: r.TimestampID, Value: value}
}

// ParseTimestamp parses one log line into a Timestamp.
func ParseTimestamp(line string) (Timestamp, error) {
	rec, err := DecodeRecord(line)
	if err != nil {
		return Timestamp{}, err
	}
	return rec.Timestamp(), nil
}

// EncodeRecord renders a timestamp of the given run in the wire format.
func EncodeRecord(runID string, ts Timestamp) (string, error) {
	data, err := json.Marshal(Record{
		TimestampID: ts.ID,
		Time:        json.Number(strconv.FormatInt(ts.Value, 10)),
		ContainerID: runID,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
