package keygen

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// fakeKeygen serves a single license and its machines.
type fakeKeygen struct {
	mu sync.Mutex

	licenseID   string
	maxMachines *int
	machines    int
	createCode  int

	machinePosts   int
	lastPostBody   map[string]interface{}
	idempotencyKey string
	requests       []string
}

func (f *fakeKeygen) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v1/accounts/acct")
	f.requests = append(f.requests, r.Method+" "+path)

	switch {
	case r.Method == http.MethodGet && path == "/licenses/"+f.licenseID:
		attrs := map[string]interface{}{"key": "KEY-1", "status": "ACTIVE"}
		if f.maxMachines != nil {
			attrs["maxMachines"] = *f.maxMachines
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"id": f.licenseID, "attributes": attrs},
		})

	case r.Method == http.MethodGet && path == "/machines":
		page, _ := strconv.Atoi(r.URL.Query().Get("page[number]"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page[size]"))
		start := (page - 1) * size
		var data []map[string]interface{}
		for i := start; i < f.machines && i < start+size; i++ {
			data = append(data, map[string]interface{}{
				"id":         fmt.Sprintf("m%d", i+1),
				"attributes": map[string]interface{}{"fingerprint": fmt.Sprintf("fp-%d", i+1), "name": "device"},
			})
		}
		if data == nil {
			data = []map[string]interface{}{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})

	case r.Method == http.MethodPost && path == "/machines":
		f.machinePosts++
		f.idempotencyKey = r.Header.Get("Idempotency-Key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &f.lastPostBody)
		if f.createCode != 0 {
			writeJSON(w, f.createCode, map[string]interface{}{"errors": []interface{}{map[string]string{"code": "MACHINE_LIMIT_EXCEEDED"}}})
			return
		}
		f.machines++
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"data": map[string]interface{}{"id": "new-machine", "attributes": map[string]interface{}{}},
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeKeygen) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intPtr(v int) *int { return &v }
