package docs

import (
	"strings"
	"testing"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil {
		t.Fatal("swagger info not initialized")
	}
	if SwaggerInfo.Title == "" {
		t.Fatal("swagger info missing title")
	}
	for _, path := range []string{"/health", "/markets", "/sentiment", "/sentiment/history", "/stream"} {
		if !strings.Contains(SwaggerInfo.SwaggerTemplate, `"`+path+`"`) {
			t.Fatalf("swagger template missing %s", path)
		}
	}
}
