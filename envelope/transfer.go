package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

const (
	ProtocolKRC20 = "krc-20"

	OpMint     = "mint"
	OpTransfer = "transfer"
)

// TokenMode selects how a token is referenced: mint-mode tokens by ticker,
// issue-mode tokens by contract address.
type TokenMode string

const (
	TokenModeMint  TokenMode = "mint"
	TokenModeIssue TokenMode = "issue"
)

// TransferDescriptor is the CONTENT-lane payload. Field order is the wire
// order of the canonical text.
type TransferDescriptor struct {
	Protocol string `json:"p"`
	Op       string `json:"op"`
	Tick     string `json:"tick,omitempty"`
	CA       string `json:"ca,omitempty"`
	Amount   string `json:"amt"`
	To       string `json:"to"`
}

// NewTransferDescriptor fills Tick or CA from token according to mode.
func NewTransferDescriptor(op string, mode TokenMode, token, amount, to string) (TransferDescriptor, error) {
	d := TransferDescriptor{Protocol: ProtocolKRC20, Op: op, Amount: amount, To: to}
	switch mode {
	case TokenModeMint:
		d.Tick = token
	case TokenModeIssue:
		d.CA = token
	default:
		return TransferDescriptor{}, builderr(BUILD_ERR_INVALID_PARAMETER, fmt.Sprintf("token mode %q (want mint|issue)", mode))
	}
	return d, nil
}

// Mode reports which token reference the descriptor carries.
func (d TransferDescriptor) Mode() TokenMode {
	if d.CA != "" {
		return TokenModeIssue
	}
	return TokenModeMint
}

// Token returns the ticker or contract address, whichever is set.
func (d TransferDescriptor) Token() string {
	if d.CA != "" {
		return d.CA
	}
	return d.Tick
}

// Validate checks the descriptor invariants: all fields present, exactly one
// token reference, and an amount written as a canonical decimal integer.
func (d TransferDescriptor) Validate() error {
	switch {
	case strings.TrimSpace(d.Protocol) == "":
		return builderr(BUILD_ERR_MISSING_PARAMETER, "descriptor protocol (p)")
	case strings.TrimSpace(d.Op) == "":
		return builderr(BUILD_ERR_MISSING_PARAMETER, "descriptor operation (op)")
	case d.Tick == "" && d.CA == "":
		return builderr(BUILD_ERR_MISSING_PARAMETER, "descriptor token (tick or ca)")
	case d.Amount == "":
		return builderr(BUILD_ERR_MISSING_PARAMETER, "descriptor amount (amt)")
	case strings.TrimSpace(d.To) == "":
		return builderr(BUILD_ERR_MISSING_PARAMETER, "descriptor destination (to)")
	}
	for _, f := range []string{d.Protocol, d.Op, d.Tick, d.CA, d.Amount, d.To} {
		if !utf8.ValidString(f) {
			return builderr(BUILD_ERR_INVALID_PARAMETER, fmt.Sprintf("descriptor field %q is not valid UTF-8", f))
		}
	}
	if d.Op != OpMint && d.Op != OpTransfer {
		return builderr(BUILD_ERR_INVALID_PARAMETER, fmt.Sprintf("descriptor operation %q (want mint|transfer)", d.Op))
	}
	if d.Tick != "" && d.CA != "" {
		return builderr(BUILD_ERR_INVALID_PARAMETER, "descriptor sets both tick and ca")
	}
	if err := checkAmount(d.Amount); err != nil {
		return builderr(BUILD_ERR_INVALID_PARAMETER, err.Error())
	}
	return nil
}

// checkAmount accepts only the canonical decimal form of an unsigned
// integer below 2^256: digits, no sign, no leading zeros.
func checkAmount(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("amount %q is not a decimal integer", s)
		}
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	if v.Dec() != s {
		return fmt.Errorf("amount %q is not canonical (want %s)", s, v.Dec())
	}
	return nil
}

// Text renders the canonical compact JSON form carried in the CONTENT lane.
func (d TransferDescriptor) Text() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("descriptor json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

var contentKeys = map[string]bool{"p": true, "op": true, "tick": true, "ca": true, "amt": true, "to": true}

// contentFields splits a JSON object into its raw members. Keys must be
// exact, known and unique; encoding/json alone would fold case, let the
// last duplicate win and drop unknown keys.
func contentFields(b []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	if tok, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("content json: %w", err)
	} else if tok != json.Delim('{') {
		return nil, fmt.Errorf("content json: want an object")
	}
	fields := make(map[string]json.RawMessage, len(contentKeys))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("content json: %w", err)
		}
		key := tok.(string)
		if !contentKeys[key] {
			return nil, fmt.Errorf("content json: unknown key %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("content json: duplicate key %q", key)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("content json: %w", err)
		}
		fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("content json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("content json: trailing data after object")
	}
	return fields, nil
}

// DecodeTransferDescriptor decodes CONTENT-lane bytes. The returned error
// describes why the text is not a usable descriptor; callers in the parser
// treat it as a warning.
func DecodeTransferDescriptor(b []byte) (TransferDescriptor, error) {
	if !utf8.Valid(b) {
		return TransferDescriptor{}, fmt.Errorf("content is not valid UTF-8")
	}
	fields, err := contentFields(b)
	if err != nil {
		return TransferDescriptor{}, err
	}
	var d TransferDescriptor
	targets := []struct {
		key string
		dst *string
	}{
		{"p", &d.Protocol}, {"op", &d.Op}, {"tick", &d.Tick}, {"ca", &d.CA}, {"amt", &d.Amount}, {"to", &d.To},
	}
	for _, t := range targets {
		raw, ok := fields[t.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return TransferDescriptor{}, fmt.Errorf("content json: %s: %w", t.key, err)
		}
	}

	missing := make([]string, 0, 5)
	for _, k := range []string{"p", "op", "tick|ca", "amt", "to"} {
		if k == "tick|ca" {
			_, tick := fields["tick"]
			_, ca := fields["ca"]
			if !tick && !ca {
				missing = append(missing, k)
			}
			continue
		}
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return TransferDescriptor{}, fmt.Errorf("content missing %s", strings.Join(missing, ", "))
	}
	if err := d.Validate(); err != nil {
		// Validate speaks the build taxonomy; a parsed lane only needs the reason.
		var e *Error
		if errors.As(err, &e) {
			return d, fmt.Errorf("content invalid: %s", e.Msg)
		}
		return d, fmt.Errorf("content invalid: %w", err)
	}
	return d, nil
}
