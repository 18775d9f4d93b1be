package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

type envelope struct {
	success *bool
	fields  map[string]json.RawMessage
}

func parseEnvelope(body []byte) (envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return envelope{}, false
	}
	env := envelope{fields: fields}
	if raw, ok := fields["success"]; ok {
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			env.success = &b
		}
	}
	return env, true
}

// serverMessage pulls "message" or "error" out of an error body.
func serverMessage(body []byte, fallback string) string {
	env, ok := parseEnvelope(body)
	if !ok {
		return fallback
	}
	for _, key := range []string{"message", "error"} {
		if raw, ok := env.fields[key]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
	}
	return fallback
}

// extract finds the payload in body: under "data", then under each resource key
// in order, then the bare body. Nested { data: { products: [...] } } is unwrapped
// one level as well.
func extract(body []byte, keys ...string) json.RawMessage {
	env, ok := parseEnvelope(body)
	if !ok {
		return bytes.TrimSpace(body)
	}
	if raw, ok := env.fields["data"]; ok && !isNull(raw) {
		if inner, ok := parseEnvelope(raw); ok {
			for _, key := range keys {
				if v, ok := inner.fields[key]; ok && !isNull(v) {
					return v
				}
			}
		}
		return raw
	}
	for _, key := range keys {
		if raw, ok := env.fields[key]; ok && !isNull(raw) {
			return raw
		}
	}
	return bytes.TrimSpace(body)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// decode and verify form the single normalization boundary for response bodies.
// decode locates the payload and unmarshals it into dst; verify checks the
// converted domain value against its struct tags. In lenient mode a mismatch is
// logged and whatever decoded is kept.
func (c *Client) decode(op string, body []byte, dst any, keys ...string) error {
	payload := extract(body, keys...)
	if err := json.Unmarshal(payload, dst); err != nil {
		return c.shapeError(op, fmt.Errorf("unmarshal: %w", err))
	}
	return nil
}

func (c *Client) verify(op string, v any) error {
	if err := c.check(v); err != nil {
		return c.shapeError(op, err)
	}
	return nil
}

func (c *Client) shapeError(op string, err error) error {
	if !c.strict {
		c.log.Warn("Response shape mismatch", zap.String("op", op), zap.Error(err))
		return nil
	}
	return &Error{Kind: KindShape, Op: op, Message: "unexpected response from server", Err: err}
}

func (c *Client) check(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Struct:
		return c.validate.Struct(rv.Interface())
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			elem := reflect.Indirect(rv.Index(i))
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := c.validate.Struct(elem.Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
