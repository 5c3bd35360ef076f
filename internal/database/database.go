package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"kaari_back_end/internal/config"
)

// --- Variables Globales ---
var (
	Store   DocumentStore
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
)

// ConnectDatabases initialise le store de documents (obligatoire) puis
// Redis, Elasticsearch et MinIO (optionnels : absents = fonctionnalité dégradée).
func ConnectDatabases(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	Store = store

	Redis = connectRedis(ctx, cfg)
	Elastic = connectElastic(cfg)
	MinIO = connectMinIO(ctx, cfg)

	log.Println("✅ Connexions initialisées")
	return nil
}

// CloseDatabases ferme le store et Redis
func CloseDatabases() {
	if Store != nil {
		if err := Store.Close(); err != nil {
			log.Printf("⚠️ Fermeture store: %v", err)
		}
	}
	if Redis != nil {
		Redis.Close()
	}
}

// OpenStore ouvre le backend de documents choisi par STORE_BACKEND
func OpenStore(cfg *config.Config) (DocumentStore, error) {
	switch cfg.StoreBackend {
	case "scylla":
		if len(cfg.ScyllaHosts) == 0 {
			return nil, fmt.Errorf("SCYLLA_HOSTS non configuré")
		}
		store, err := NewScyllaStore(ScyllaConfig{
			Hosts:       cfg.ScyllaHosts,
			Keyspace:    cfg.ScyllaKeyspace,
			Username:    cfg.ScyllaUsername,
			Password:    cfg.ScyllaPassword,
			SSLEnabled:  cfg.ScyllaSSLEnabled,
			CACertPath:  cfg.ScyllaCACertPath,
			Timeout:     cfg.ScyllaTimeout,
			NumConns:    20,
			Consistency: gocql.Quorum,
		})
		if err != nil {
			return nil, fmt.Errorf("échec initialisation ScyllaDB: %w", err)
		}
		return store, nil
	case "bolt", "":
		store, err := NewBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		log.Printf("✅ Store BoltDB ouvert: %s", cfg.BoltPath)
		return store, nil
	default:
		return nil, fmt.Errorf("STORE_BACKEND inconnu: %s", cfg.StoreBackend)
	}
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisHost == "" {
		log.Println("⚠️ REDIS_HOST non configuré, cache et rate limiting désactivés")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Erreur connexion Redis, cache désactivé: %v", err)
		client.Close()
		return nil
	}
	log.Println("✅ Connecté à Redis")
	return client
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg *config.Config) *elasticsearch.Client {
	if cfg.ElasticURL == "" {
		log.Println("⚠️ ELASTIC_URL non configuré, recherche désactivée")
		return nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		log.Printf("⚠️ Erreur création client Elasticsearch: %v", err)
		return nil
	}
	res, err := client.Info()
	if err != nil {
		log.Printf("⚠️ Erreur connexion Elasticsearch: %v", err)
		return nil
	}
	defer res.Body.Close()

	log.Println("✅ Connecté à Elasticsearch")
	return client
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg *config.Config) *minio.Client {
	if cfg.MinioEndpoint == "" {
		log.Println("⚠️ MINIO_ENDPOINT non configuré, stockage de fichiers désactivé")
		return nil
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Printf("⚠️ Erreur connexion MinIO: %v", err)
		return nil
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		log.Printf("⚠️ Erreur vérification bucket MinIO: %v", err)
		return nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			log.Printf("⚠️ Erreur création bucket MinIO: %v", err)
			return nil
		}
		log.Println("🪣 Bucket créé :", cfg.MinioBucket)
	}

	log.Println("✅ Connecté à MinIO :", cfg.MinioEndpoint)
	return client
}
