package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/pkg/sys"

	"main/internal/backfill"
	"main/internal/bus"
	"main/internal/client"
	"main/internal/ops"
	"main/internal/schema"
	"main/internal/store"
	"main/internal/tape"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	mode := flag.String("mode", "time", "What to run: time|details|bars|backfill|stream|positions|executions")
	symbol := flag.String("symbol", "AAPL", "Contract symbol")
	secType := flag.String("sec-type", "STK", "Security type")
	exchange := flag.String("exchange", "SMART", "Exchange")
	currency := flag.String("currency", "USD", "Currency")
	barSize := flag.String("bar-size", "1 min", "Bar size for bars/backfill/stream")
	duration := flag.String("duration", "1 D", "Duration for one-shot bar requests")
	backfillDays := flag.Int("backfill-days", 5, "Days to backfill")
	profileAddr := flag.String("profile-addr", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "ibprobe",
			ServerAddress:   *profileAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx := context.Background()
	cfg := loaded.Client

	var recorder *tape.Writer
	if loaded.Tape.Enabled {
		recorder, err = tape.NewWriter(tape.DefaultConfig(loaded.Tape.Dir))
		if err != nil {
			log.Fatalf("tape init failed: %v", err)
		}
		if err := recorder.Start(ctx); err != nil {
			log.Fatalf("tape start failed: %v", err)
		}
		defer func() {
			_ = recorder.Close()
		}()
		cfg.OnFrame = func(inbound bool, payload []byte) {
			dir := tape.DirOutbound
			if inbound {
				dir = tape.DirInbound
			}
			_ = recorder.Capture(dir, payload)
		}
	}

	var cache *store.Store
	if loaded.Store != nil {
		cache, err = store.Open(*loaded.Store)
		if err != nil {
			log.Fatalf("store open failed: %v", err)
		}
		defer func() {
			_ = cache.Close()
		}()
	}

	c := client.New(cfg)
	if err := c.Connect(ctx); err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer c.Close()
	fmt.Printf("connected: server version %d, accounts %v\n",
		c.ServerVersion(), c.ManagedAccounts())

	contract := schema.Contract{
		Symbol:   *symbol,
		SecType:  *secType,
		Exchange: *exchange,
		Currency: *currency,
	}
	size, err := parseBarSize(*barSize)
	if err != nil {
		log.Fatalf("invalid bar size: %v", err)
	}

	switch *mode {
	case "time":
		runTime(ctx, c)
	case "details":
		runDetails(ctx, c, cache, contract)
	case "bars":
		runBars(ctx, c, cache, contract, *duration, size)
	case "backfill":
		runBackfill(ctx, c, cache, contract, size, *backfillDays)
	case "stream":
		runStream(c, contract, size)
	case "positions":
		runPositions(ctx, c)
	case "executions":
		runExecutions(ctx, c)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runTime(ctx context.Context, c *client.Client) {
	now, err := c.RequestCurrentTime(ctx)
	if err != nil {
		log.Fatalf("current time failed: %v", err)
	}
	fmt.Printf("gateway time: %s\n", now)
}

func runDetails(ctx context.Context, c *client.Client, cache *store.Store, contract schema.Contract) {
	key := store.ContractsKey(contract)
	if cache != nil {
		if details, ok, err := cache.LoadContractDetails(key, 24*time.Hour); err != nil {
			log.Fatalf("cache read failed: %v", err)
		} else if ok {
			printDetails(details, "cached")
			return
		}
	}
	details, err := c.RequestContractDetails(ctx, contract)
	if err != nil {
		log.Fatalf("contract details failed: %v", err)
	}
	if cache != nil {
		if err := cache.SaveContractDetails(key, details); err != nil {
			log.Printf("cache write failed: %v", err)
		}
	}
	printDetails(details, "gateway")
}

func printDetails(details []schema.ContractDetails, source string) {
	fmt.Printf("%d contracts (%s):\n", len(details), source)
	for _, d := range details {
		fmt.Printf("  conId=%d %s %s %s %q\n",
			d.Contract.ConID, d.Contract.Symbol, d.Contract.Exchange,
			d.Contract.Currency, d.LongName)
	}
}

func runBars(ctx context.Context, c *client.Client, cache *store.Store, contract schema.Contract, duration string, size schema.BarSize) {
	bars, err := c.RequestHistoricalBars(ctx, contract, time.Time{}, duration, size, schema.ShowTrades, true)
	if err != nil {
		log.Fatalf("historical bars failed: %v", err)
	}
	fmt.Printf("%d bars\n", len(bars))
	for _, bar := range bars {
		fmt.Printf("  %s o=%.2f h=%.2f l=%.2f c=%.2f v=%v\n",
			bar.Time.Format(time.RFC3339), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}
	saveBars(cache, contract, size, bars)
}

func runBackfill(ctx context.Context, c *client.Client, cache *store.Store, contract schema.Contract, size schema.BarSize, days int) {
	end := time.Now().UTC()
	runner, err := backfill.New(c, backfill.Config{
		Contract: contract,
		BarSize:  size,
		Show:     schema.ShowTrades,
		UseRTH:   true,
		Start:    end.AddDate(0, 0, -days),
		End:      end,
		OnChunk: func(bars []schema.Bar) error {
			fmt.Printf("  chunk: %d bars ending %s\n",
				len(bars), bars[len(bars)-1].Time.Format(time.RFC3339))
			return nil
		},
	})
	if err != nil {
		log.Fatalf("backfill init failed: %v", err)
	}
	bars, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("backfill failed: %v", err)
	}
	fmt.Printf("backfilled %d bars\n", len(bars))
	saveBars(cache, contract, size, bars)
}

func saveBars(cache *store.Store, contract schema.Contract, size schema.BarSize, bars []schema.Bar) {
	if cache == nil || len(bars) == 0 {
		return
	}
	key := store.BarsKey(contract, size, schema.ShowTrades)
	if err := cache.SaveBars(key, bars); err != nil {
		log.Printf("cache write failed: %v", err)
	}
}

func runStream(c *client.Client, contract schema.Contract, size schema.BarSize) {
	detach := c.Attach(func(e bus.Event) {
		if e.Kind == bus.EventError {
			fmt.Printf("gateway error %d: %s\n", e.Err.Code, e.Err.Msg)
		}
	})
	defer detach()

	id, err := c.SubscribeBars(contract, size, schema.ShowTrades, true, "1 D", func(bar schema.Bar) {
		fmt.Printf("bar %s o=%.2f h=%.2f l=%.2f c=%.2f v=%v\n",
			bar.Time.Format("15:04:05"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	})
	if err != nil {
		log.Fatalf("subscribe failed: %v", err)
	}
	fmt.Println("streaming, ctrl-c to stop")
	<-sys.Shutdown()
	if err := c.Unsubscribe(id); err != nil {
		log.Printf("unsubscribe failed: %v", err)
	}
}

func runPositions(ctx context.Context, c *client.Client) {
	positions, err := c.RequestPositions(ctx)
	if err != nil {
		log.Fatalf("positions failed: %v", err)
	}
	fmt.Printf("%d positions\n", len(positions))
	for _, p := range positions {
		fmt.Printf("  %s %s qty=%v avgCost=%.2f\n",
			p.Account, p.Contract.Symbol, p.Quantity, p.AvgCost)
	}
}

func runExecutions(ctx context.Context, c *client.Client) {
	execs, err := c.RequestExecutions(ctx)
	if err != nil {
		log.Fatalf("executions failed: %v", err)
	}
	fmt.Printf("%d executions\n", len(execs))
	for _, e := range execs {
		fmt.Printf("  %s %s %s %v@%.2f\n", e.Time, e.Contract.Symbol, e.Side, e.Shares, e.Price)
	}
}

func parseBarSize(s string) (schema.BarSize, error) {
	for _, size := range []schema.BarSize{
		schema.BarSize5Sec, schema.BarSize1Min, schema.BarSize5Min,
		schema.BarSize15Min, schema.BarSize1Hour, schema.BarSize1Day,
	} {
		if strings.EqualFold(size.Wire(), s) {
			return size, nil
		}
	}
	return schema.BarSizeUnknown, fmt.Errorf("unsupported bar size %q", s)
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
