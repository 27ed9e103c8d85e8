package esmemory

import (
	"net/http"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver string

	endpoint    string
	username    string
	password    string
	fingerprint string
	refresh     string
	transport   http.RoundTripper

	indexPrefix        string
	vectorSize         int
	strictVectorSize   bool
	shards             int
	replicas           int
	tagValue           string
	writeMode          string
	candidatePoolExtra int

	relevanceMode string
	defaultLimit  int

	embedder Embedder
	logger   *zap.Logger
}

// WithElasticsearch connects the client to an Elasticsearch cluster.
func WithElasticsearch(endpoint, username, password string) Option {
	return func(c *clientConfig) {
		c.driver = driverElasticsearch
		c.endpoint = endpoint
		c.username = username
		c.password = password
	}
}

// WithCertificateFingerprint pins the cluster CA certificate by its hex SHA-256 fingerprint.
func WithCertificateFingerprint(fp string) Option {
	return func(c *clientConfig) {
		c.fingerprint = fp
	}
}

// WithTransport overrides the HTTP transport used to reach Elasticsearch.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// WithRefresh sets the refresh policy applied to writes: "true", "false" or "wait_for".
// "wait_for" gives read-after-write visibility at the cost of write latency.
func WithRefresh(policy string) Option {
	return func(c *clientConfig) {
		c.refresh = policy
	}
}

// InMemory keeps indexes in process memory. Intended for tests and local runs.
func InMemory() Option {
	return func(c *clientConfig) {
		c.driver = driverMemory
	}
}

// WithIndexPrefix prepends a tenant prefix to every physical index name.
func WithIndexPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.indexPrefix = prefix
	}
}

// WithVectorSize sets the dimensionality used when CreateIndex gets no explicit size.
// With strict set, Upsert rejects records whose vector has a different length.
func WithVectorSize(size int, strict bool) Option {
	return func(c *clientConfig) {
		c.vectorSize = size
		c.strictVectorSize = strict
	}
}

// WithShards sets the shard and replica counts of new indexes. Negative replicas keep the engine default.
func WithShards(shards, replicas int) Option {
	return func(c *clientConfig) {
		c.shards = shards
		c.replicas = replicas
	}
}

// WithTextTagValues maps tag values as analyzed text with a keyword sub-field.
func WithTextTagValues() Option {
	return func(c *clientConfig) {
		c.tagValue = "text"
	}
}

// WithFullReplace makes Upsert replace whole documents instead of merging into them.
func WithFullReplace() Option {
	return func(c *clientConfig) {
		c.writeMode = "index"
	}
}

// WithCandidatePoolExtra sets how many k-NN candidates are fetched beyond the limit.
func WithCandidatePoolExtra(n int) Option {
	return func(c *clientConfig) {
		c.candidatePoolExtra = n
	}
}

// WithEngineRelevance delegates the minimum relevance cut-off to the engine
// instead of filtering hits on the client.
func WithEngineRelevance() Option {
	return func(c *clientConfig) {
		c.relevanceMode = "engine"
	}
}

// WithDefaultLimit sets the result count used when a query has no limit.
func WithDefaultLimit(n int) Option {
	return func(c *clientConfig) {
		c.defaultLimit = n
	}
}

// WithEmbedder sets the embedding provider used by similarity search.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
