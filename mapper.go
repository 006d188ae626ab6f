package kafka

import (
	"fmt"
	"strings"

	"github.com/sko00o/plunger-kafka/message"
)

// Kafka has no message properties of its own, record metadata is carried
// as properties with this prefix. Record headers keep their own names.
const SystemPrefix = "kafka."

const (
	PropertyKey           = SystemPrefix + "key"
	PropertyOffset        = SystemPrefix + "offset"
	PropertyPartition     = SystemPrefix + "partition"
	PropertyTimestamp     = SystemPrefix + "timestamp"
	PropertyTimestampType = SystemPrefix + "timestamp_type"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// IsSystemHeader reports whether a property name is record metadata.
func IsSystemHeader(name string) bool {
	return strings.HasPrefix(name, SystemPrefix)
}

// RecordToMessage translates a received record. With excludeProperties only
// the body is kept.
func RecordToMessage(r Record, excludeProperties bool) *message.Message {
	msg := message.New(string(r.Value))
	if excludeProperties {
		return msg
	}

	if r.Key != nil {
		msg.Put(PropertyKey, string(r.Key))
	}
	msg.Put(PropertyOffset, r.Offset)
	msg.Put(PropertyPartition, r.Partition)
	if r.TimestampType != NoTimestampType {
		msg.Put(PropertyTimestamp, r.Timestamp.UTC().Format(timestampLayout))
		msg.Put(PropertyTimestampType, r.TimestampType.String())
	}

	for _, h := range r.Headers {
		msg.Put(h.Key, string(h.Value))
	}
	return msg
}

// MessageHeaders turns every property of msg into a header, in property order.
func MessageHeaders(msg *message.Message) []Header {
	props := msg.Properties()
	if len(props) == 0 {
		return nil
	}
	headers := make([]Header, 0, len(props))
	for _, p := range props {
		headers = append(headers, Header{
			Key:   p.Name,
			Value: []byte(fmt.Sprint(p.Value)),
		})
	}
	return headers
}

// ResolveKey picks the key of an outbound record:
//
//   - a non-blank key parameter is used for every message,
//   - a present but blank key parameter removes the key ("key="),
//   - otherwise the key carried by the message is used, if not blank.
func ResolveKey(paramPresent bool, paramValue string, carried string, carriedPresent bool) *string {
	if v := strings.TrimSpace(paramValue); v != "" {
		return &v
	}
	if paramPresent {
		return nil
	}
	if !carriedPresent {
		return nil
	}
	if v := strings.TrimSpace(carried); v != "" {
		return &v
	}
	return nil
}

func messageKey(args paramSource, msg *message.Message) *string {
	value, present := args.Param(ParamKey)
	carried, carriedPresent := msg.PropertyString(PropertyKey)
	return ResolveKey(present, value, carried, carriedPresent)
}

type paramSource interface {
	Param(name string) (string, bool)
}
