// utilitário pequeno para formatação consistente de valores numéricos em headers.

package gate

import (
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	// sem notação científica para valores comuns
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// retryAfterSeconds arredonda para cima: Retry-After=0 faria o cliente repetir cedo demais.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}

// formatSeconds escreve a duração em segundos com precisão de milissegundo.
func formatSeconds(d time.Duration) string {
	return formatFloat(float64(d.Milliseconds()) / 1000)
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
