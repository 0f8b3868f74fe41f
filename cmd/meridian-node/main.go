// Command meridian-node fetches a shard's routing table from a
// meridian-coordinator instance, decodes it, builds an iterator using
// a chosen policy, and prints the resulting dispatch order. It is a
// diagnostic and load-testing client, not a data-plane node — this
// module stops at routing, so there is nothing here to store or
// serve besides the routing table itself.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/meridian/internal/routing"
)

func main() {
	var (
		coordinatorAddr string
		indexName       string
		shardNumber     int
		policyName      string
		preferNode      string
	)

	root := &cobra.Command{
		Use:   "meridian-node",
		Short: "Fetch a shard's routing table and print an iterator's dispatch order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(coordinatorAddr, indexName, shardNumber, policyName, preferNode)
		},
	}

	root.Flags().StringVar(&coordinatorAddr, "coordinator", "http://localhost:8080", "coordinator base URL")
	root.Flags().StringVar(&indexName, "index", "", "index name (required)")
	root.Flags().IntVar(&shardNumber, "shard", 0, "shard number")
	root.Flags().StringVar(&policyName, "policy", "shards", "iterator policy")
	root.Flags().StringVar(&preferNode, "node", "", "node id, for prefer-node policies")
	root.MarkFlagRequired("index") //nolint:errcheck

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(coordinatorAddr, indexName string, shardNumber int, policyName, preferNode string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	url := fmt.Sprintf("%s/routing/%s/%d", coordinatorAddr, indexName, shardNumber)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("fetching routing table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coordinator returned status %d for %s", resp.StatusCode, url)
	}

	table, err := routing.DecodeFat(resp.Body)
	if err != nil {
		return fmt.Errorf("decoding routing table: %w", err)
	}

	kind, ok := routing.ParsePolicyKind(policyName)
	if !ok {
		return fmt.Errorf("unknown policy %q", policyName)
	}

	it := routing.BuildIterator(table, routing.Policy{Kind: kind, NodeId: preferNode})
	logger.Info("dispatch order",
		zap.String("index", indexName),
		zap.Int("shard", shardNumber),
		zap.String("policy", policyName),
	)

	for {
		shard, ok := it.Next()
		if !ok {
			break
		}
		fmt.Printf("%s node=%s state=%s primary=%v\n", shard.ShardId, shard.CurrentNodeId, shard.State, shard.Primary)
	}
	return nil
}
