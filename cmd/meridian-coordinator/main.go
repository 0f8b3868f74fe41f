// Command meridian-coordinator serves shard routing tables over HTTP
// and exposes Prometheus metrics for the iterator dispatches it
// performs on behalf of connecting nodes.
//
// It does not implement cluster-state publication or shard
// allocation decisions: those belong to a coordination layer this
// module does not build (see the root-level design notes). What it
// does do is serve the tables held in its in-memory routing-table
// registry, refresh node attributes for the prefer-attributes
// policies, and answer "give me shard N of index I, wire-encoded" and
// "dispatch this key against policy P" requests. The registry starts
// empty, and this binary exposes no endpoint for installing tables
// into it.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/meridian/internal/clusterstate"
	"github.com/dreamware/meridian/internal/routetable"
	"github.com/dreamware/meridian/internal/routing"
)

func main() {
	var (
		listenAddr       string
		clusterAttrsPath string
		attrRefresh      time.Duration
	)

	root := &cobra.Command{
		Use:   "meridian-coordinator",
		Short: "Serve shard routing tables and dispatch iterator requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(listenAddr, clusterAttrsPath, attrRefresh)
		},
	}

	root.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	root.Flags().StringVar(&clusterAttrsPath, "cluster-attributes", "", "path to a static cluster-attributes YAML file")
	root.Flags().DurationVar(&attrRefresh, "attribute-refresh-interval", 30*time.Second, "how often to poll nodes for attribute changes")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(listenAddr, clusterAttrsPath string, attrRefresh time.Duration) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	tables := routetable.NewRegistry(routetable.NewPrometheusMetrics(reg))
	nodes := clusterstate.NewDirectory(attrRefresh, logger.Named("clusterstate"))

	if clusterAttrsPath != "" {
		cfg, err := clusterstate.LoadStaticConfig(clusterAttrsPath)
		if err != nil {
			return err
		}
		cfg.Seed(nodes)
		logger.Info("seeded cluster attributes", zap.Int("nodes", len(cfg.Nodes)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go nodes.Start(ctx)
	defer nodes.Stop()

	srv := &server{tables: tables, nodes: nodes, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/routing/", srv.handleRouting)
	mux.HandleFunc("/dispatch/", srv.handleDispatch)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("meridian-coordinator listening", zap.String("addr", listenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	logger.Info("meridian-coordinator stopped")
	return nil
}

// server holds the runtime state the HTTP handlers close over: the
// routing-table registry and the node attribute directory.
type server struct {
	tables *routetable.Registry
	nodes  *clusterstate.Directory
	logger *zap.Logger
}

// handleRouting serves a single shard's routing table, fat-encoded,
// at GET /routing/{index}/{shardNumber}.
func (s *server) handleRouting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	indexName, shardNumber, ok := parseShardPath(r.URL.Path, "/routing/")
	if !ok {
		http.Error(w, "expected /routing/{index}/{shardNumber}", http.StatusBadRequest)
		return
	}

	table, ok := s.tables.Get(routing.ShardId{IndexName: indexName, ShardNumber: shardNumber})
	if !ok {
		http.Error(w, "shard not registered", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if err := routing.EncodeFat(w, table); err != nil {
		s.logger.Error("failed to encode routing table", zap.Error(err))
	}
}

// dispatchRequest is the JSON body for POST /dispatch/{index}.
type dispatchRequest struct {
	Key        string `json:"key"`
	PolicyKind string `json:"policy"`
	NodeId     string `json:"node_id,omitempty"`
}

type dispatchResponse struct {
	Shards []routing.ShardRouting `json:"shards"`
}

// handleDispatch resolves a routing key against an index's shard
// table and runs the requested policy, returning the resulting
// iteration order. It is a convenience endpoint for clients that
// would rather not fetch a whole table and build the iterator
// locally.
func (s *server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	indexName := r.URL.Path[len("/dispatch/"):]
	if indexName == "" {
		http.Error(w, "index name required", http.StatusBadRequest)
		return
	}

	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	kind, ok := routing.ParsePolicyKind(req.PolicyKind)
	if !ok {
		http.Error(w, "unknown policy kind", http.StatusBadRequest)
		return
	}

	it, err := s.tables.Dispatch(indexName, req.Key, routing.Policy{Kind: kind, NodeId: req.NodeId, Nodes: s.nodes})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	shards := make([]routing.ShardRouting, 0, it.Remaining())
	for {
		shard, ok := it.Next()
		if !ok {
			break
		}
		shards = append(shards, shard)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dispatchResponse{Shards: shards}); err != nil {
		s.logger.Error("failed to encode dispatch response", zap.Error(err))
	}
}

func parseShardPath(path, prefix string) (indexName string, shardNumber int, ok bool) {
	rest := path[len(prefix):]
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == '/' {
			n, err := strconv.Atoi(rest[i+1:])
			if err != nil {
				return "", 0, false
			}
			return rest[:i], n, true
		}
	}
	return "", 0, false
}
