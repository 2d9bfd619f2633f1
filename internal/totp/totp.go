// Package totp computes and checks the rolling one-time codes that can be
// required in addition to a party's access token.
//
// A code for time step N is derived from HMAC-SHA256(secret, N) with dynamic
// truncation, mapped onto a configurable alphabet. A supplied code is accepted
// when it matches the code of the previous, current or next step.
package totp

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/ocpi/internal/errors"
)

const (
	// DefaultStepDuration is the validity of one code.
	DefaultStepDuration = 30 * time.Second
	// DefaultCodeLength is the number of characters per code.
	DefaultCodeLength = 12
	// DefaultAlphabet is used when no alphabet is configured.
	DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	maxCodeLength = 255
)

// ErrInvalidConfig is returned for unusable TOTP settings.
var ErrInvalidConfig = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid TOTP configuration")

// Config holds the shared secret and code format.
type Config struct {
	SharedSecret string
	StepDuration time.Duration
	CodeLength   int
	Alphabet     string
}

// NewConfig returns a Config for secret with the default format.
func NewConfig(secret string) Config {
	return Config{
		SharedSecret: secret,
		StepDuration: DefaultStepDuration,
		CodeLength:   DefaultCodeLength,
		Alphabet:     DefaultAlphabet,
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.StepDuration == 0 {
		c.StepDuration = DefaultStepDuration
	}
	if c.CodeLength == 0 {
		c.CodeLength = DefaultCodeLength
	}
	if c.Alphabet == "" {
		c.Alphabet = DefaultAlphabet
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	err := validation.ValidateStruct(&c,
		validation.Field(&c.SharedSecret, validation.Required),
		validation.Field(&c.StepDuration, validation.Min(time.Second)),
		validation.Field(&c.CodeLength, validation.Min(1), validation.Max(maxCodeLength)),
		validation.Field(&c.Alphabet, validation.Length(2, 256)),
	)
	if err != nil {
		return apperrors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

type configJSON struct {
	SharedSecret string `json:"sharedSecret"`
	StepDuration int64  `json:"stepDuration,omitempty"`
	CodeLength   int    `json:"codeLength,omitempty"`
	Alphabet     string `json:"alphabet,omitempty"`
}

// MarshalJSON encodes the step duration in whole seconds.
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		SharedSecret: c.SharedSecret,
		StepDuration: int64(c.StepDuration / time.Second),
		CodeLength:   c.CodeLength,
		Alphabet:     c.Alphabet,
	})
}

// UnmarshalJSON decodes the step duration from whole seconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Config{
		SharedSecret: raw.SharedSecret,
		StepDuration: time.Duration(raw.StepDuration) * time.Second,
		CodeLength:   raw.CodeLength,
		Alphabet:     raw.Alphabet,
	}
	return nil
}

// Codes are the accepted codes around one instant.
type Codes struct {
	Previous string
	Current  string
	Next     string
}

// Contains reports whether code equals any of the three codes.
func (c Codes) Contains(code string) bool {
	// Evaluate all three so timing does not reveal which window matched.
	prev := equal(code, c.Previous)
	curr := equal(code, c.Current)
	next := equal(code, c.Next)
	return prev || curr || next
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Step returns the time step index of t.
func Step(cfg Config, t time.Time) int64 {
	cfg = cfg.withDefaults()
	return t.Unix() / int64(cfg.StepDuration/time.Second)
}

// Generate returns the codes for the steps before, at and after now.
func Generate(cfg Config, now time.Time) (Codes, error) {
	if err := cfg.Validate(); err != nil {
		return Codes{}, err
	}
	cfg = cfg.withDefaults()

	step := Step(cfg, now)
	return Codes{
		Previous: codeForStep(cfg, step-1),
		Current:  codeForStep(cfg, step),
		Next:     codeForStep(cfg, step+1),
	}, nil
}

// Verify reports whether code is accepted at now.
func Verify(cfg Config, code string, now time.Time) (bool, error) {
	codes, err := Generate(cfg, now)
	if err != nil {
		return false, err
	}
	return codes.Contains(code), nil
}

// CodeAt returns the single code for the step containing t.
func CodeAt(cfg Config, t time.Time) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	cfg = cfg.withDefaults()
	return codeForStep(cfg, Step(cfg, t)), nil
}

func codeForStep(cfg Config, step int64) string {
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(step))

	mac := hmac.New(sha256.New, []byte(cfg.SharedSecret))
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	offset := int(sum[len(sum)-1] & 0x0f)
	alphabet := []rune(cfg.Alphabet)

	code := make([]rune, cfg.CodeLength)
	for i := range code {
		b := sum[(offset+i)%len(sum)]
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code)
}
