package perfcounter_test

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Schera-ole/perfcounter/internal/perf"
	"github.com/Schera-ole/perfcounter/internal/provider"
	"github.com/Schera-ole/perfcounter/internal/repository"
	"github.com/Schera-ole/perfcounter/internal/symbols"
)

type constRand int

func (r constRand) IntN(int) int { return int(r) }

// Example of opening a provider, collecting its object and decoding it
func Example_collect() {
	ctx := context.Background()

	storage := repository.NewMemStorage()
	if err := storage.Register(ctx, "PerfCounter", symbols.Base{FirstCounter: 1000, FirstHelp: 1001}); err != nil {
		fmt.Println(err)
		return
	}

	p := provider.New("PerfCounter", storage, zap.NewNop().Sugar(), provider.WithRand(constRand(7)))
	if err := p.Open(ctx, nil); err != nil {
		fmt.Println(err)
		return
	}
	defer p.Close()

	cursor := perf.NewCursor(make([]byte, 256))
	written, objects, err := p.Collect("Global", cursor)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("wrote %d bytes, %d object\n", written, objects)

	obj, _, err := perf.DecodeObject(cursor.Bytes())
	if err != nil {
		fmt.Println(err)
		return
	}
	for i, def := range obj.Counters {
		v, err := obj.Value(i)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("%d %s %v\n", def.CounterNameTitleIndex, v.Kind, v.Any())
	}
	// Output:
	// wrote 184 bytes, 1 object
	// 1002 text Hello, World!
	// 1004 dword 7
}

// Example of the buffer check done before anything is written
func Example_moreData() {
	ctx := context.Background()

	storage := repository.NewMemStorage()
	storage.Register(ctx, "PerfCounter", symbols.Base{FirstCounter: 1000, FirstHelp: 1001})

	p := provider.New("PerfCounter", storage, zap.NewNop().Sugar())
	exports := provider.NewExports(p, 0, zap.NewNop().Sugar())
	_ = p.Open(ctx, nil)

	data := make([]byte, 100)
	total, count := uint32(len(data)), uint32(0)
	status := exports.Collect("Global", &data, &total, &count)
	fmt.Println(status, total, count, len(data))
	// Output: ERROR_MORE_DATA 0 0 100
}
