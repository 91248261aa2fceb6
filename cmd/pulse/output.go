package main

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

func writeJSON(w io.Writer, pretty bool, v any) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
	} else {
		out, err = sonic.ConfigStd.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
