package contracts

import (
	"github.com/mitchellh/mapstructure"
)

// DecodeMap deserializes an open key/value map into a typed struct.
// Activities use this to turn merged arguments or compensate-log data into
// their declared argument/log types; keys match the struct's json tags.
func DecodeMap(src map[string]any, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(src)
}

// MergeMaps applies the deterministic two-layer merge used for activity
// arguments and compensate-log data: the base layer comes from the slip's
// variables, the override layer from the activity-specific map. Override
// values win key by key. Neither input is modified.
func MergeMaps(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
