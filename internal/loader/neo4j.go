package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config 控制 Neo4j 连接参数。
type Config struct {
	URI                  string
	Username             string
	Password             string
	Database             string
	MaxConnectionPool    int
	ConnectionTimeoutSec int
}

// Counters 是写语句的变更统计。
type Counters struct {
	NodesCreated         int `json:"nodesCreated"`
	NodesDeleted         int `json:"nodesDeleted"`
	RelationshipsCreated int `json:"relationshipsCreated"`
	RelationshipsDeleted int `json:"relationshipsDeleted"`
	PropertiesSet        int `json:"propertiesSet"`
}

// Add 累加另一份统计。
func (c *Counters) Add(o Counters) {
	c.NodesCreated += o.NodesCreated
	c.NodesDeleted += o.NodesDeleted
	c.RelationshipsCreated += o.RelationshipsCreated
	c.RelationshipsDeleted += o.RelationshipsDeleted
	c.PropertiesSet += o.PropertiesSet
}

// Runner 是写入端需要的最小执行接口，测试中可替换。
type Runner interface {
	RunWrite(ctx context.Context, query string, params map[string]any) (Counters, error)
	RunRaw(ctx context.Context, query string, params map[string]any) error
}

// Client 持有 driver 与目标库，每次调用新开 session。
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ Runner = (*Client)(nil)

// NewClient 创建 driver 并校验连通性。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri must not be empty")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(dc *neo4j.Config) {
		if cfg.MaxConnectionPool > 0 {
			dc.MaxConnectionPoolSize = cfg.MaxConnectionPool
		}
		if cfg.ConnectionTimeoutSec > 0 {
			dc.SocketConnectTimeout = time.Duration(cfg.ConnectionTimeoutSec) * time.Second
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j unreachable: %w", err)
	}
	return &Client{driver: driver, database: cfg.Database}, nil
}

// Close 关闭 driver。
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database, AccessMode: neo4j.AccessModeWrite})
}

// RunWrite 在托管写事务中执行一条语句并返回变更统计，驱动会对可重试错误自动重放。
func (c *Client) RunWrite(ctx context.Context, query string, params map[string]any) (Counters, error) {
	sess := c.session(ctx)
	defer sess.Close(ctx)
	out, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return countersOf(summary.Counters()), nil
	})
	if err != nil {
		return Counters{}, fmt.Errorf("run write: %w", err)
	}
	counters, _ := out.(Counters)
	return counters, nil
}

// RunRaw 以自动提交事务执行语句，schema 语句只能这样执行。
func (c *Client) RunRaw(ctx context.Context, query string, params map[string]any) error {
	sess := c.session(ctx)
	defer sess.Close(ctx)
	res, err := sess.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("run statement: %w", err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("run statement: %w", err)
	}
	return nil
}

func countersOf(c neo4j.Counters) Counters {
	return Counters{
		NodesCreated:         c.NodesCreated(),
		NodesDeleted:         c.NodesDeleted(),
		RelationshipsCreated: c.RelationshipsCreated(),
		RelationshipsDeleted: c.RelationshipsDeleted(),
		PropertiesSet:        c.PropertiesSet(),
	}
}
