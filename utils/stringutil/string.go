/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package stringutil

import (
	"encoding/json"
	"strings"
	"unsafe"
)

// StringBuilder used for string builder, and returns string
func StringBuilder(str ...string) string {
	var b strings.Builder
	for _, p := range str {
		b.WriteString(p)
	}
	return b.String() // no copying
}

// BytesToString used for bytes to string, reduce memory
// https://segmentfault.com/a/1190000037679588
func BytesToString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// MarshalJSON returns marshal object json
func MarshalJSON(v any) (string, error) {
	jsonStr, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return BytesToString(jsonStr), nil
}

// WrapSchemes adds http or https scheme to input addrs
func WrapSchemes(str string, https bool) []string {
	addrs := strings.Split(str, ",")
	output := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		output = append(output, WrapScheme(addr, https))
	}
	return output
}

// WrapScheme adds http or https scheme to input if missing
func WrapScheme(s string, https bool) string {
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if https {
		return "https://" + s
	}
	return "http://" + s
}
