// accordsim is a single-process simulation harness: it stands up an
// in-memory topology of shards and replicas, wires a Coordinator against
// an in-process Transport that dispatches straight into each replica's
// command store, and drives a YCSB-style synthetic workload through the
// full PreAccept -> Accept -> Commit -> Read -> Apply pipeline.
//
// Grounded on the teacher's fc-server/main.go (flag layout, profiling
// hooks) and benchmark/ycsb.go (zipfian key selection via
// github.com/pingcap/go-ycsb/pkg/generator, randomized transaction
// shape), generalized from the teacher's fixed 2PC/3PC/FC protocols and
// real network participants to the Accord phase machine running
// entirely in one process.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/pingcap/go-ycsb/pkg/generator"

	"github.com/maedhroz/accord/accordlog"
	"github.com/maedhroz/accord/command"
	"github.com/maedhroz/accord/config"
	"github.com/maedhroz/accord/coordinator"
	"github.com/maedhroz/accord/datastore"
	"github.com/maedhroz/accord/datastore/memstore"
	"github.com/maedhroz/accord/datastore/mongostore"
	"github.com/maedhroz/accord/datastore/pgstore"
	"github.com/maedhroz/accord/keys"
	"github.com/maedhroz/accord/message"
	"github.com/maedhroz/accord/replica"
	"github.com/maedhroz/accord/timestamp"
	"github.com/maedhroz/accord/topology"
)

var (
	configPath = flag.String("config", "", "path to a .properties config file (overrides built-in defaults)")
	numShards  = flag.Int("shards", 1, "number of shards")
	numReplica = flag.Int("replicas", 3, "replicas per shard")
	keySpace   = flag.Int("keys", 1000, "number of keys per shard")
	numTxns    = flag.Int("txns", 200, "number of transactions to run")
	skew       = flag.Float64("skew", 0.99, "zipfian constant for key selection")
	readFrac   = flag.Float64("rw", 0.5, "fraction of per-key accesses that are reads")
	debug      = flag.Bool("debug", false, "enable debug-level protocol tracing")
	cpuProfile = flag.String("cpu_prof", "", "write a CPU profile to this path")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.NumberOfShards = *numShards
	cfg.NumberOfReplicas = *numReplica
	cfg.Debug = cfg.Debug || *debug
	accordlog.SetDebug(cfg.Debug)
	accordlog.SetLiveness(cfg.Liveness)
	accordlog.SetTest(true)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not create CPU profile:", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintln(os.Stderr, "could not start CPU profile:", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	sim, err := newSimulation(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "accordsim:", err)
		os.Exit(1)
	}

	st := newStat()
	ctx := context.Background()
	for i := 0; i < *numTxns; i++ {
		start := time.Now()
		err := sim.runOneTxn(ctx, i)
		st.record(err, time.Since(start))
	}
	st.report()
}

// simulation owns the topology, the per-node replicas, and the
// coordinator used to drive transactions against them.
type simulation struct {
	tm          *topology.TopologyManager
	co          *coordinator.Coordinator
	shardRanges []keys.Range
	zipf        []*generator.Zipfian
	rnd         *rand.Rand
	readFrac    float64
}

func newSimulation(cfg config.Config) (*simulation, error) {
	tm := topology.NewTopologyManager()
	nodes := map[topology.NodeID]*replica.Node{}

	var shards []topology.Shard
	var ranges []keys.Range
	for s := 0; s < cfg.NumberOfShards; s++ {
		r := shardRange(s, cfg.NumberOfShards)
		ranges = append(ranges, r)

		var replicaIDs []topology.NodeID
		for rep := 0; rep < cfg.NumberOfReplicas; rep++ {
			nodeID := topology.NodeID(fmt.Sprintf("s%d-r%d", s, rep))
			replicaIDs = append(replicaIDs, nodeID)

			data, err := openDataStore(cfg)
			if err != nil {
				return nil, err
			}
			clock := timestamp.NewClock(uint64(s*cfg.NumberOfReplicas + rep + 1))
			node := replica.NewNode(nodeID, clock)
			node.AddStore(command.NewStore(0, nil), data)
			nodes[nodeID] = node
		}
		f := (cfg.NumberOfReplicas - 1) / 2
		shards = append(shards, topology.NewShard(r, replicaIDs, f))
	}
	if err := tm.Add(topology.Topology{Epoch: 1, Shards: shards}); err != nil {
		return nil, err
	}

	transport := &localTransport{nodes: nodes}
	clock := timestamp.NewClock(1 << 20)
	co := coordinator.New("accordsim-coordinator", clock, tm, transport)

	zipf := make([]*generator.Zipfian, cfg.NumberOfShards)
	for i := range zipf {
		zipf[i] = generator.NewZipfianWithRange(0, int64(*keySpace-1), *skew)
	}

	return &simulation{
		tm:          tm,
		co:          co,
		shardRanges: ranges,
		zipf:        zipf,
		rnd:         rand.New(rand.NewSource(1)),
		readFrac:    *readFrac,
	}, nil
}

func openDataStore(cfg config.Config) (datastore.Store, error) {
	switch cfg.DataStore {
	case "postgres":
		return pgstore.Open(context.Background(), cfg.DataStoreDSN, "accord_kv")
	case "mongo":
		return mongostore.Open(context.Background(), cfg.DataStoreDSN, "accord", "kv")
	default:
		return memstore.New(), nil
	}
}

// shardRange partitions the byte [0x00, 0xFF] key space into n contiguous
// ranges, sufficient for a synthetic numeric-keyed workload.
func shardRange(i, n int) keys.Range {
	width := 256 / n
	start := i * width
	if i == n-1 {
		// The last range ends past every two-byte key the workload uses.
		return keys.Range{Start: keys.Key{byte(start)}, End: keys.Key{0xFF, 0xFF, 0x00}}
	}
	return keys.Range{Start: keys.Key{byte(start)}, End: keys.Key{byte(start + width)}}
}

func (s *simulation) runOneTxn(ctx context.Context, i int) error {
	shardIdx := i % len(s.shardRanges)
	r := s.shardRanges[shardIdx]
	keyOffset := int(s.zipf[shardIdx].Next(s.rnd))
	key := keys.Key{r.Start[0], byte(keyOffset % 256)}

	touched := keys.NewRanges([]keys.Range{r})
	route := keys.NewFullRoute(key, keys.RoutingKeys{Keys: keys.NewKeys([]keys.Key{key})}, 1)
	reads := keys.NewKeys([]keys.Key{key})
	kind := timestamp.Write
	if s.rnd.Float64() < s.readFrac {
		kind = timestamp.Read
	}

	_, err := s.co.Execute(ctx, 1, route, touched, kind, reads, func(values map[string][]byte) (command.Writes, command.Result) {
		v := values[string(key)]
		if kind == timestamp.Write {
			v = []byte(fmt.Sprintf("v%d", i))
		}
		return command.Writes{string(key): v}, command.Result(v)
	})
	return err
}

// localTransport dispatches directly into each node's replica.Node
// handlers, skipping real network I/O. Every node in this harness owns
// exactly one CommandStore (storeID 0).
type localTransport struct {
	nodes map[topology.NodeID]*replica.Node
}

func noConflicts(*command.Safe, command.ID) command.DepSet {
	return command.NewDepSet()
}

func (t *localTransport) Send(ctx context.Context, node topology.NodeID, req any) (any, error) {
	n, ok := t.nodes[node]
	if !ok {
		return nil, fmt.Errorf("accordsim: unknown node %v", node)
	}
	switch r := req.(type) {
	case *message.PreAccept:
		ok, nack := n.HandlePreAccept(0, r, noConflicts)
		if nack != nil {
			return nack, nil
		}
		return ok, nil
	case *message.Accept:
		ok, nack := n.HandleAccept(0, r)
		if nack != nil {
			return nack, nil
		}
		return ok, nil
	case *message.Commit:
		n.HandleCommit(0, r)
		return nil, nil
	case *message.Read:
		ok, nack := n.HandleRead(0, r)
		if nack != nil {
			return nack, nil
		}
		return ok, nil
	case *message.Apply:
		ok, nack := n.HandleApply(0, r)
		if nack != nil {
			return nack, nil
		}
		return ok, nil
	default:
		return nil, fmt.Errorf("accordsim: unsupported message type %T", req)
	}
}

type stat struct {
	started   time.Time
	total     int
	committed int
	failed    int
	latencies []time.Duration
}

func newStat() *stat {
	return &stat{started: time.Now()}
}

func (s *stat) record(err error, latency time.Duration) {
	s.total++
	if err != nil {
		s.failed++
		return
	}
	s.committed++
	s.latencies = append(s.latencies, latency)
}

func (s *stat) report() {
	sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
	elapsed := time.Since(s.started)
	fmt.Printf("total=%d committed=%d failed=%d elapsed=%s\n", s.total, s.committed, s.failed, elapsed)
	if len(s.latencies) == 0 {
		return
	}
	p50 := s.latencies[len(s.latencies)*50/100]
	p99 := s.latencies[min(len(s.latencies)*99/100, len(s.latencies)-1)]
	fmt.Printf("latency p50=%s p99=%s\n", p50, p99)
}
