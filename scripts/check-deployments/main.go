// check-deployments: probes a set of JSON-RPC nodes in parallel and reports,
// for each one, whether the embedded RightsContractFactory artifact has code
// at its recorded address on that node's network.
//
// Run from the module root:
//
//	go run ./scripts/check-deployments [rpc-url...]
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/ethereum/go-ethereum/common"
)

var defaultURLs = []string{
	"http://127.0.0.1:8545",
	"http://127.0.0.1:7545",
}

const rpcTimeout = 12 * time.Second

type result struct {
	url     string
	network string
	block   uint64
	address string
	code    string
	balance string
	err     string
}

func main() {
	urls := os.Args[1:]
	if len(urls) == 0 {
		urls = defaultURLs
	}

	art := artifact.Default()
	reg := chain.NewRegistry()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			r := probe(url, art, reg)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(url)
	}
	wg.Wait()

	printTable(results)
}

func probe(url string, art *artifact.Artifact, reg *chain.Registry) result {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	r := result{url: url, network: "-", address: "-", code: "-", balance: "-"}

	client, err := chain.Dial(ctx, url)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	defer client.Close()

	id, err := client.NetworkID(ctx)
	if err != nil {
		r.err = "unreachable"
		return r
	}
	r.network = reg.Describe(id)
	if _, block, err := client.Ping(ctx); err == nil {
		r.block = block
	}

	rec, ok := art.Network(id)
	if !ok {
		rec, ok = art.Network(artifact.DefaultNetwork)
	}
	if !ok || rec.Address == "" {
		r.err = "no deployment recorded"
		return r
	}
	r.address = shortAddr(rec.Address)
	addr := common.HexToAddress(rec.Address)

	code, err := client.CodeAt(ctx, addr)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	if len(code) == 0 {
		r.code = "none"
		r.err = "not deployed on this node"
	} else {
		r.code = fmt.Sprintf("%d bytes", len(code))
	}

	if bal, err := client.BalanceAt(ctx, addr); err == nil {
		r.balance = trimZeros(chain.WeiToETH(bal))
	}
	return r
}

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool { return results[i].url < results[j].url })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RPC\tNETWORK\tBLOCK\tADDRESS\tCODE\tBALANCE\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 22)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 12))
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.url, r.network, r.block, r.address, r.code, r.balance, r.err)
	}
	w.Flush()
}

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}

// trimZeros removes trailing zeros after the decimal point: "0.050000" → "0.05"
func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
