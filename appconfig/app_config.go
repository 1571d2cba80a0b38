package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	ChatModel              string `env:"CHAT-MODEL" ini:"chat_model"`
	EmbeddingModel         string `env:"EMBEDDING-MODEL" ini:"embedding_model"`
	ChunkSize              int    `ini:"chunk_size"`
	ChunkOverlap           int    `ini:"chunk_overlap"`
	EntityTopK             int    `ini:"entity_top_k"`
	TimeTopK               int    `ini:"time_top_k"`
	DownloadTimeoutSeconds int    `ini:"download_timeout_seconds"`
}
