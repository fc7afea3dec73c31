// Package utils contains small helper functions used across the project.
package utils

import (
	"encoding/json"
	"io"
)

// PrintJSON writes v to w as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
