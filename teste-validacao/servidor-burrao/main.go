package main

import (
	"fmt"
	"net/http"
)

// Upstream "burro" para validar o gateway na mão: só ecoa o que o gate repassou.
func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get("X-Gate-Subject")
		flags := r.Header.Get("X-Gate-Flags")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>Upstream</h1><p>%s %s</p><p>subject=%q flags=%q</p>", r.Method, r.URL.Path, subject, flags)
		fmt.Printf("Log: %s %s subject=%q flags=%q\n", r.Method, r.URL.Path, subject, flags)
	})
	fmt.Println("Servidor rodando em http://localhost:8081")
	err := http.ListenAndServe(":8081", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
