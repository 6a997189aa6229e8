package groww

import (
	"strings"
	"testing"
)

const shortlistPage = `<!DOCTYPE html><html><head><title>Top Gainers</title></head><body>
<div id="__next"><table><tr><td>rendered markup is ignored</td></tr></table></div>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"stocks":[
  {"companyName":"Reliance Industries","companyShortName":"Reliance","ltp":2890.5,"nseScriptCode":"RELIANCE"},
  {"companyName":"","companyShortName":"TCS","ltp":4100.0,"nseScriptCode":"TCS"},
  {"companyName":"No Symbol Ltd","companyShortName":"","ltp":12.0,"nseScriptCode":""},
  {"companyName":"","companyShortName":"","ltp":1.0,"nseScriptCode":"GHOST"}
]}}}
</script></body></html>`

func TestParseShortlistPage(t *testing.T) {
	entries, err := parseShortlistPage(strings.NewReader(shortlistPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 usable entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].NSESymbol != "RELIANCE" || entries[0].Name != "Reliance Industries" {
		t.Errorf("entry 0: %+v", entries[0])
	}
	if entries[1].NSESymbol != "TCS" || entries[1].Name != "TCS" {
		t.Errorf("short name should back-fill a missing company name: %+v", entries[1])
	}
}

func TestParseShortlistPage_MissingScriptTag(t *testing.T) {
	_, err := parseShortlistPage(strings.NewReader(`<html><body><p>maintenance</p></body></html>`))
	if err == nil {
		t.Fatal("expected error when __NEXT_DATA__ is absent")
	}
}
