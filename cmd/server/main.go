package main

import (
	stdlog "log"

	"admarket/internal/transport/http"
)

func main() {
	if err := http.Run(); err != nil {
		stdlog.Fatalf("server exited: %v", err)
	}
}
