package config

import (
	"reflect"

	"bafb/internal/wrappers"
)

// MergeIl2CppDumper copies every configured dumper option that differs from
// the built-in default onto opts. Fields the command fills in are left alone.
func (c Config) MergeIl2CppDumper(opts *wrappers.Il2CppDumperOptions) {
	mergeOptions(opts, c.Il2CppDumper, wrappers.DefaultIl2CppDumperOptions())
}

func (c Config) MergeFbsDumper(opts *wrappers.FbsDumperOptions) {
	mergeOptions(opts, c.FbsDumper, wrappers.FbsDumperOptions{})
}

func (c Config) MergeFlatC(opts *wrappers.FlatCOptions) {
	mergeOptions(opts, c.FlatC, wrappers.FlatCOptions{})
}

// mergeOptions walks three values of the same struct type.
func mergeOptions[T any](dst *T, loaded, defaults T) {
	dv := reflect.ValueOf(dst).Elem()
	lv := reflect.ValueOf(loaded)
	def := reflect.ValueOf(defaults)
	for i := 0; i < dv.NumField(); i++ {
		if runOwned(dv.Type().Field(i)) {
			continue
		}
		value := lv.Field(i)
		if sameValue(value, def.Field(i)) {
			continue
		}
		dv.Field(i).Set(value)
	}
}

func runOwned(sf reflect.StructField) bool {
	return sf.Tag.Get("merge") == "-"
}

// ignoredFields names the run-owned fields a config file sets anyway.
func ignoredFields[T any](section string, loaded, defaults T) []string {
	lv := reflect.ValueOf(loaded)
	def := reflect.ValueOf(defaults)
	var names []string
	for i := 0; i < lv.NumField(); i++ {
		sf := lv.Type().Field(i)
		if !runOwned(sf) {
			continue
		}
		if sameValue(lv.Field(i), def.Field(i)) {
			continue
		}
		key := sf.Tag.Get("toml")
		names = append(names, section+"."+key)
	}
	return names
}

// sameValue is reflect.DeepEqual except that nil and empty slices match, as
// YAML decodes "[]" to an empty slice.
func sameValue(a, b reflect.Value) bool {
	if a.Kind() == reflect.Slice && a.Len() == 0 && b.Len() == 0 {
		return true
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}
