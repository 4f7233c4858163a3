package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/config"
	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/infrastructure/memory"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	memStore    *memory.Store
	redisClient *redis.Client

	jwtManager *helpers.JWTManager

	events   application.EventPublisher
	esClient *elasticsearch.Client
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger != nil {
		return logger
	}
	return helpers.NewDiscardLogger()
}
func SetPGPool(p *pgxpool.Pool)         { pgPool = p }
func GetPGPool() *pgxpool.Pool          { return pgPool }
func SetMemoryStore(s *memory.Store)    { memStore = s }
func GetMemoryStore() *memory.Store     { return memStore }
func SetRedis(r *redis.Client)          { redisClient = r }
func GetRedis() *redis.Client           { return redisClient }
func SetJWT(m *helpers.JWTManager)      { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

// SetEvents installs the audit publisher. Pass nil to disable auditing.
func SetEvents(p application.EventPublisher) { events = p }
func GetEvents() application.EventPublisher  { return events }
func SetES(c *elasticsearch.Client)          { esClient = c }
func GetES() *elasticsearch.Client           { return esClient }
