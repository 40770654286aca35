package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	PGSQL      PQSQL      `yaml:"pgsql" env-required:"true"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
	Redis      Redis      `yaml:"redis"`
	MinIO      MinIO      `yaml:"minio"`
	Media      Media      `yaml:"media"`
	RateLimits RateLimits `yaml:"rate_limits"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"super_secret_key"`
	SeedFile   string     `yaml:"seed_file" env:"SEED_FILE" env-default:"posts.json"`
}

type HTTPServer struct {
	Address     string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:5173"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"posts_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"post-images"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type RateLimits struct {
	PostsPerMinute int64 `yaml:"posts_per_minute" env:"RATE_LIMIT_POSTS" env-default:"20"`
	LikesPerMinute int64 `yaml:"likes_per_minute" env:"RATE_LIMIT_LIKES" env-default:"60"`
}

type Media struct {
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-default:"image/jpeg,image/png,image/gif,image/webp"`
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"5242880"`
	PresignedURLTTL  int      `yaml:"presigned_url_ttl" env-default:"900"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
