// Package dsql manages database/sql pools against Aurora DSQL cluster
// endpoints. Connections authenticate with short-lived IAM DB auth tokens,
// so pools are rebuilt once their token ages out.
package dsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	dsqlauth "github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	_ "github.com/lib/pq"

	"dbguard/internal/awsconf"
	"dbguard/internal/config"
)

const (
	defaultDatabase = "postgres"
	defaultUser     = "admin"
	// Tokens are valid for 15 minutes; rebuild pools before that.
	tokenLifetime = 10 * time.Minute
)

type poolEntry struct {
	db        *sql.DB
	createdAt time.Time
}

type Manager struct {
	profile string

	mu    sync.Mutex
	pools map[string]poolEntry

	// Injection points for tests.
	token func(ctx context.Context, cluster config.Cluster, admin bool) (string, error)
	open  func(dsn string) (*sql.DB, error)
	now   func() time.Time
}

func NewManager(profile string) *Manager {
	m := &Manager{
		profile: profile,
		pools:   map[string]poolEntry{},
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("postgres", dsn)
		},
		now: time.Now,
	}
	m.token = m.generateToken
	return m
}

// Pool returns a live pool for the cluster, creating or refreshing it as
// needed. admin selects the admin auth token; non-admin tokens map to the
// cluster's configured database role.
func (m *Manager) Pool(ctx context.Context, cluster config.Cluster, admin bool) (*sql.DB, error) {
	if strings.TrimSpace(cluster.Endpoint) == "" {
		return nil, errors.New("cluster endpoint required")
	}
	key := fmt.Sprintf("%s|%v", cluster.Endpoint, admin)

	m.mu.Lock()
	entry, ok := m.pools[key]
	m.mu.Unlock()
	if ok && m.now().Sub(entry.createdAt) < tokenLifetime {
		return entry.db, nil
	}

	token, err := m.token(ctx, cluster, admin)
	if err != nil {
		return nil, fmt.Errorf("generate auth token: %w", err)
	}
	db, err := m.open(buildDSN(cluster, token))
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	m.mu.Lock()
	if stale, ok := m.pools[key]; ok {
		_ = stale.db.Close()
	}
	m.pools[key] = poolEntry{db: db, createdAt: m.now()}
	m.mu.Unlock()
	return db, nil
}

// ReadOnlyTx opens a transaction the database itself enforces as read-only.
// The classifier gate runs first, but this is the backstop it documents.
func (m *Manager) ReadOnlyTx(ctx context.Context, cluster config.Cluster, admin bool) (*sql.Tx, error) {
	db, err := m.Pool(ctx, cluster, admin)
	if err != nil {
		return nil, err
	}
	return db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
}

// WriteTx opens a read-write transaction owned by the server; statements
// executed inside it must not carry their own transaction control.
func (m *Manager) WriteTx(ctx context.Context, cluster config.Cluster) (*sql.Tx, error) {
	db, err := m.Pool(ctx, cluster, true)
	if err != nil {
		return nil, err
	}
	return db.BeginTx(ctx, &sql.TxOptions{})
}

// Close shuts every pool down.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.pools {
		_ = entry.db.Close()
		delete(m.pools, key)
	}
}

func (m *Manager) generateToken(ctx context.Context, cluster config.Cluster, admin bool) (string, error) {
	region := cluster.Region
	if region == "" {
		region = RegionFromEndpoint(cluster.Endpoint)
	}
	awsCfg, err := awsconf.LoadConfig(ctx, region, m.profile)
	if err != nil {
		return "", err
	}
	return connectToken(ctx, cluster.Endpoint, awsCfg.Region, awsCfg.Credentials, admin)
}

func connectToken(ctx context.Context, endpoint, region string, creds sdkaws.CredentialsProvider, admin bool) (string, error) {
	if admin {
		return dsqlauth.GenerateDBConnectAdminAuthToken(ctx, endpoint, region, creds)
	}
	return dsqlauth.GenerateDbConnectAuthToken(ctx, endpoint, region, creds)
}

func buildDSN(cluster config.Cluster, token string) string {
	database := cluster.Database
	if database == "" {
		database = defaultDatabase
	}
	user := cluster.User
	if user == "" {
		user = defaultUser
	}
	return fmt.Sprintf("host=%s port=5432 dbname=%s user=%s password=%s sslmode=verify-full",
		cluster.Endpoint, database, user, token)
}

// RegionFromEndpoint extracts the region from a DSQL cluster endpoint of
// the form <id>.dsql.<region>.on.aws. Empty when the endpoint has another
// shape.
func RegionFromEndpoint(endpoint string) string {
	parts := strings.Split(endpoint, ".")
	for i, part := range parts {
		if part == "dsql" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
