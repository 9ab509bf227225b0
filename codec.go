package swim

import "encoding/json"

// A Codec serializes and deserializes Messages. It is pure and
// side-effect-free.
type Codec interface {
	Encode(m Message) ([]byte, error)
	Decode(b []byte) (Message, error)
}

// wireMessage is the on-the-wire record: message_name, meta_data, and
// piggyback_data.
type wireMessage struct {
	MessageName  MessageName       `json:"message_name"`
	MetaData     *CorrelationMeta  `json:"meta_data"`
	PiggybackData *PiggybackPayload `json:"piggyback_data"`
}

// JSONCodec encodes Messages as JSON. It satisfies Codec.
type JSONCodec struct{}

// Encode serializes m into its wire form.
func (JSONCodec) Encode(m Message) ([]byte, error) {
	return json.Marshal(wireMessage{
		MessageName:   m.Name,
		MetaData:      m.Meta,
		PiggybackData: m.Piggyback,
	})
}

// Decode reconstructs a Message from its wire form, or returns
// DeserializationError if b is not a well-formed encoding of one.
func (JSONCodec) Decode(b []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return Message{}, &DeserializationError{Cause: err}
	}
	if w.MessageName == "" {
		return Message{}, &DeserializationError{Cause: errMissingMessageName}
	}
	return Message{Name: w.MessageName, Meta: w.MetaData, Piggyback: w.PiggybackData}, nil
}
