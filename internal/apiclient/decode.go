package apiclient

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode converts a parsed JSON value, as returned by Request, into out using the
// struct's json tags. Numbers and strings are converted leniently.
func Decode(v any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
