//go:build linux
// +build linux

package wifi_test

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wlancodec/wifi"
)

// TestIntegrationLinuxAccessPoints decodes the cached scan results of every
// station interface with one Codec shared by several clients, and checks that
// each BSS's capabilities survive an encode and decode.
func TestIntegrationLinuxAccessPoints(t *testing.T) {
	const workers = 4

	m, err := wifi.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	codec := wifi.NewCodec(&wifi.Config{Metrics: m})

	c := testClient(t, codec)
	ifis, err := c.Interfaces()
	if err != nil {
		t.Fatalf("failed to retrieve interfaces: %v", err)
	}

	var stations []*wifi.Interface
	for _, ifi := range ifis {
		if ifi.Name != "" && ifi.Type == wifi.InterfaceTypeStation {
			stations = append(stations, ifi)
		}
	}
	if len(stations) == 0 {
		t.Skip("skipping, found no WiFi station interfaces")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]int)
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		wc := testClient(t, codec)
		go func() {
			defer wg.Done()

			for _, ifi := range stations {
				bsss, err := wc.AccessPoints(ifi)
				if err != nil {
					if !errors.Is(err, os.ErrNotExist) {
						t.Errorf("failed to retrieve access points for %s: %v", ifi.Name, err)
					}
					continue
				}

				for _, b := range bsss {
					checkCapabilities(t, b)
				}

				mu.Lock()
				seen[ifi.Name]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for name, n := range seen {
		if n != workers {
			t.Fatalf("interface %s listed by %d of %d workers", name, n, workers)
		}
	}

	t.Logf("interfaces: %d, decoded element series: %d",
		len(stations), testutil.CollectAndCount(m.ElementsDecoded))
}

func checkCapabilities(t *testing.T, b *wifi.BSS) {
	t.Helper()

	if b.Capabilities == nil {
		return
	}

	fromAP := b.FrameType.FromAP()
	elems, err := b.Capabilities.Elements(fromAP)
	if err != nil {
		t.Errorf("%s: failed to encode capabilities: %v", b.BSSID, err)
		return
	}

	got, err := wifi.ParseCapabilities(elems, fromAP)
	if err != nil {
		t.Errorf("%s: failed to decode capabilities: %v", b.BSSID, err)
		return
	}

	if diff := cmp.Diff(b.Capabilities, got); diff != "" {
		t.Errorf("%s: capabilities changed after re-encoding (-want +got):\n%s", b.BSSID, diff)
	}
}

func testClient(t *testing.T, codec *wifi.Codec) *wifi.Client {
	t.Helper()

	c, err := wifi.NewWithCodec(codec)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.Skipf("skipping, nl80211 not found: %v", err)
		}

		t.Fatalf("failed to create client: %v", err)
	}

	t.Cleanup(func() { _ = c.Close() })
	return c
}
