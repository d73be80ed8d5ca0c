package cli

import (
	"fmt"
	"io"
	"sync"
)

// terminalPresenter prints flow outcomes as lines.
type terminalPresenter struct {
	mu  sync.Mutex
	out io.Writer

	invoiceID string
	failed    bool
}

func (p *terminalPresenter) CloseModal() {}

func (p *terminalPresenter) Alert(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = true
	fmt.Fprintln(p.out, "Lỗi: "+msg)
}

func (p *terminalPresenter) Notify(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, msg)
}

func (p *terminalPresenter) NavigateToInvoiceEdit(invoiceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invoiceID = invoiceID
	fmt.Fprintln(p.out, "invoice: "+invoiceID)
}

func (p *terminalPresenter) OpenDocument(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, url)
}
