package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// SchemaVersion names one of the two ledger schema conventions a tenant may
// use for the same financial concepts. V1 lacks the change_amount column and
// keeps receivables in a ledger-balance table; V2 has change_amount and keeps
// receivables on the enrollment row.
type SchemaVersion string

const (
	SchemaVersionV1 SchemaVersion = "V1"
	SchemaVersionV2 SchemaVersion = "V2"
)

func (v SchemaVersion) Valid() bool {
	return v == SchemaVersionV1 || v == SchemaVersionV2
}

// UnmarshalJSON accepts "V1"/"V2", bare "1"/"2" and the numeric forms older
// clients send.
func (v *SchemaVersion) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case string:
		switch strings.ToUpper(strings.TrimSpace(val)) {
		case "V1", "1":
			*v = SchemaVersionV1
		case "V2", "2":
			*v = SchemaVersionV2
		default:
			return errors.New("invalid schema version")
		}
	case float64:
		switch int(val) {
		case 1:
			*v = SchemaVersionV1
		case 2:
			*v = SchemaVersionV2
		default:
			return errors.New("invalid schema version")
		}
	default:
		return errors.New("schema version must be string or number")
	}
	return nil
}

// TransactionStatus filters ledger reads into three mutually exclusive
// classes. The zero filter (nil) excludes cancelled rows only.
type TransactionStatus string

const (
	TransactionStatusPosted    TransactionStatus = "Posted"
	TransactionStatusCancelled TransactionStatus = "Cancelled"
	TransactionStatusPending   TransactionStatus = "Pending"
)

func (t TransactionStatus) Valid() bool {
	return t == TransactionStatusPosted || t == TransactionStatusCancelled || t == TransactionStatusPending
}

func (t *TransactionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("status must be string")
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "posted":
		*t = TransactionStatusPosted
	case "cancelled", "canceled":
		*t = TransactionStatusCancelled
	case "pending":
		*t = TransactionStatusPending
	default:
		return errors.New("invalid transaction status")
	}
	return nil
}
