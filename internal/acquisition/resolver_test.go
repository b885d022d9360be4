package acquisition_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stanza/internal/acquisition"
	"stanza/internal/catalog"
	"stanza/internal/log"
	"stanza/internal/store"
	"stanza/internal/transport"
)

// chainServer serves /borrow/N documents: each points at /borrow/N+1 until
// depth is reached, where a direct download link is returned.
func chainServer(depth int) *httptest.Server {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	for i := 0; i <= depth; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/borrow/%d", i), func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/opds-publication+json")
			if i == depth {
				fmt.Fprintf(w, `{"metadata":{"title":"Book"},"links":[
					{"rel":"http://opds-spec.org/acquisition/open-access","href":"/files/book.epub","type":"application/epub+zip"}]}`)
				return
			}
			fmt.Fprintf(w, `{"metadata":{"title":"Book"},"links":[
				{"rel":"http://opds-spec.org/acquisition/borrow","href":"/borrow/%d","type":"application/opds-publication+json"}]}`, i+1)
		})
	}
	return srv
}

func newResolver(srvURL string) *acquisition.Resolver {
	f := transport.New(transport.Options{
		Credentials: store.NewMemory(),
		ETags:       store.NewMemory(),
		Logger:      log.Null(),
	})
	_ = srvURL
	return acquisition.New(f, log.Null())
}

func TestResolveShortChain(t *testing.T) {
	srv := chainServer(2)
	defer srv.Close()

	r := newResolver(srv.URL)
	url, err := r.Resolve(context.Background(), srv.URL+"/borrow/0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if url != srv.URL+"/files/book.epub" {
		t.Fatalf("unexpected URL %q", url)
	}
}

func TestResolveChainTooLong(t *testing.T) {
	// Six hops against a bound of five
	srv := chainServer(6)
	defer srv.Close()

	r := newResolver(srv.URL)
	_, err := r.Resolve(context.Background(), srv.URL+"/borrow/0")
	if err == nil {
		t.Fatal("expected error")
	}
	if !catalog.IsKind(err, catalog.KindChainTooLong) {
		t.Fatalf("expected ChainTooLong, got %v", err)
	}
}

func TestResolveCycleTerminates(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/borrow/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"metadata":{"title":"Book"},"links":[
			{"rel":"http://opds-spec.org/acquisition/borrow","href":"/borrow/b"}]}`)
	})
	mux.HandleFunc("/borrow/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"metadata":{"title":"Book"},"links":[
			{"rel":"http://opds-spec.org/acquisition/borrow","href":"/borrow/a"}]}`)
	})

	r := newResolver(srv.URL)
	_, err := r.Resolve(context.Background(), srv.URL+"/borrow/a")
	if !catalog.IsKind(err, catalog.KindChainTooLong) {
		t.Fatalf("expected ChainTooLong on cycle, got %v", err)
	}
}

func TestResolveUnauthorizedSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := newResolver(srv.URL)
	_, err := r.Resolve(context.Background(), srv.URL+"/borrow/0")
	if !catalog.IsKind(err, catalog.KindUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestResolveNoAcquisitionLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"metadata":{"title":"Book"},"links":[{"rel":"self","href":"/pub/1"}]}`)
	}))
	defer srv.Close()

	r := newResolver(srv.URL)
	_, err := r.Resolve(context.Background(), srv.URL+"/borrow/0")
	if !catalog.IsKind(err, catalog.KindParse) {
		t.Fatalf("expected Parse error, got %v", err)
	}
}
