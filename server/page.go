package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"

	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/render"
)

// fallbackImageURL is the frame image used when no coin could be resolved
const fallbackImageURL = "https://wallet.coinbase.com/api/miniapps/social-swap/image?networkId=networks/ethereum-mainnet&nativeAssetSymbol=ETH"

type frameAction struct {
	Type                  string `json:"type"`
	Swap                  bool   `json:"swap"`
	Token                 string `json:"token"`
	Name                  string `json:"name"`
	URL                   string `json:"url"`
	SplashImageURL        string `json:"splashImageUrl"`
	SplashBackgroundColor string `json:"splashBackgroundColor"`
}

type frameButton struct {
	Title  string      `json:"title"`
	Action frameAction `json:"action"`
}

// frame is the fc:frame document embedded in the page head
type frame struct {
	Version  string      `json:"version"`
	ImageURL string      `json:"imageUrl"`
	Button   frameButton `json:"button"`
}

func newFrame(imageURL, tokenName string) frame {
	return frame{
		Version:  "next",
		ImageURL: imageURL,
		Button: frameButton{
			Title: "Trade",
			Action: frameAction{
				Type:                  "view_token",
				Swap:                  true,
				Token:                 "eip155:1/slip44:60",
				Name:                  "Swap " + tokenName,
				URL:                   "https://wallet.coinbase.com/asset?networkId=networks/ethereum-mainnet&contractAddress=native",
				SplashImageURL:        "https://go.wallet.coinbase.com/static/wallets/coinbase-wallet.svg",
				SplashBackgroundColor: "#0a0b0d",
			},
		},
	}
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Random Swap: {{.TokenName}}</title>
<meta name="description" content="Swap a random token each visit.">
<meta name="fc:frame" content="{{.Frame}}">
<style>
body{background:#0b0d10;color:#fff;font-family:sans-serif;margin:0;padding:32px}
main{max-width:1200px;margin:0 auto}
img{width:100%;height:auto;border-radius:16px;border:1px solid rgba(255,255,255,0.08)}
.muted{color:#9ca3af}
</style>
</head>
<body>
<main>
<h1>Random Swap: {{.TokenName}}</h1>
{{if .ImagePath}}<p class="muted">{{.Symbol}} {{.Price}}</p>
<img src="{{.ImagePath}}" alt="Price chart for {{.TokenName}}" width="1200" height="630">
{{else}}<p class="muted">No coin selected.</p>
{{end}}</main>
</body>
</html>
`

type pageData struct {
	TokenName string
	Symbol    string
	Price     string
	ImagePath string
	Frame     string
}

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	tmpl, err := template.New("index").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("server: parse page template: %w", err)
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

// ogPath links the OG card of p's coin; empty when p is nil
func ogPath(p *payload.Payload, days int) string {
	if p == nil || p.Subject.ID == "" {
		return ""
	}
	return fmt.Sprintf("/api/og?id=%s&days=%d", url.QueryEscape(p.Subject.ID), days)
}

func (pr *pageRenderer) render(baseURL string, days int, p *payload.Payload) ([]byte, error) {
	data := pageData{TokenName: "Token", ImagePath: ogPath(p, days)}
	imageURL := fallbackImageURL
	if p != nil {
		if p.Subject.Name != "" {
			data.TokenName = p.Subject.Name
		}
		data.Symbol = p.Subject.Symbol
		data.Price = render.FormatUSD(p.Detail.PriceUSD)
	}
	if data.ImagePath != "" {
		imageURL = baseURL + data.ImagePath
	}

	frameJSON, err := json.Marshal(newFrame(imageURL, data.TokenName))
	if err != nil {
		return nil, fmt.Errorf("server: encode frame: %w", err)
	}
	data.Frame = string(frameJSON)

	var buf bytes.Buffer
	if err := pr.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("server: render page: %w", err)
	}
	return buf.Bytes(), nil
}
