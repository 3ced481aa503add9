package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Test http service with deterministic endpoints for trying the http_*
// functions by hand.

var bindFlag = flag.String("bind", ":17000", "listen address")

func main() {
	flag.Parse()

	var hits atomic.Int64
	mux := http.NewServeMux()

	mux.HandleFunc("GET /hello", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello world"))
	})

	// /count returns how many times it was called
	mux.HandleFunc("GET /count", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strconv.FormatInt(hits.Add(1), 10)))
	})

	// /bytes?n=1048576&seed=1 returns n pseudo random bytes
	mux.HandleFunc("GET /bytes", func(w http.ResponseWriter, r *http.Request) {
		vals := r.URL.Query()
		n, err := strconv.Atoi(vals.Get("n"))
		if err != nil || n < 0 {
			http.Error(w, "n must be a non-negative integer", http.StatusBadRequest)
			return
		}
		seed, _ := strconv.ParseInt(vals.Get("seed"), 10, 64)
		b := make([]byte, n)
		rand.New(rand.NewSource(seed)).Read(b)
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(b)
	})

	// /slow?delay=2s answers after the delay
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		d, err := time.ParseDuration(r.URL.Query().Get("delay"))
		if err != nil {
			d = time.Second
		}
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
		fmt.Fprintf(w, "waited %s", d)
	})

	// /status/404 answers with the given status code
	mux.HandleFunc("GET /status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.PathValue("code"))
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "invalid status code", http.StatusBadRequest)
			return
		}
		w.WriteHeader(code)
		fmt.Fprintf(w, "status %d", code)
	})

	if err := http.ListenAndServe(*bindFlag, mux); err != nil {
		panic(err)
	}
}
