package main

import (
	"context"
	"os"
	"runtime/debug"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/recipe-flow/appconfig"
	"github.com/SaiNageswarS/recipe-flow/display"
	"github.com/SaiNageswarS/recipe-flow/llm"
	"github.com/SaiNageswarS/recipe-flow/pdfio"
	"github.com/SaiNageswarS/recipe-flow/recipe"
	"github.com/SaiNageswarS/recipe-flow/workflow"
	"go.uber.org/zap"
)

const defaultPdfURL = "https://kyushucgc.co.jp/recipe_pdf/202112/recipe05.pdf"

func main() {
	dotenv.LoadEnv()

	// load config file
	ccfgg := &appconfig.AppConfig{}
	err := config.LoadConfig("config.ini", ccfgg)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Clients fail fast on a missing OPENAI_API_KEY, before any node runs.
	chat := llm.NewOpenAIClient(ccfgg.ChatModel)
	embedder := llm.NewOpenAIEmbedder(ccfgg.EmbeddingModel)

	pdfs := pdfio.NewService(
		time.Duration(ccfgg.DownloadTimeoutSeconds)*time.Second,
		ccfgg.ChunkSize, ccfgg.ChunkOverlap)

	runner, err := workflow.New(chat, embedder, pdfs, ccfgg.EntityTopK, ccfgg.TimeTopK).Compile()
	if err != nil {
		logger.Fatal("Failed to compile workflow", zap.Error(err))
	}

	pdfURL := defaultPdfURL
	if len(os.Args) > 1 {
		pdfURL = os.Args[1]
	}

	result := run(context.Background(), runner, pdfURL)
	if err := display.New().Show(result); err != nil {
		logger.Error("Failed to print result", zap.Error(err))
	}
}

// run executes the workflow once. A panic anywhere in the pipeline is logged
// with its stack and still yields a printable empty result.
func run(ctx context.Context, runner *workflow.Runner[workflow.State], pdfURL string) (result *recipe.ExtractionResult) {
	result = &recipe.ExtractionResult{}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Workflow panicked",
				zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
		}
	}()

	logger.Info("Starting recipe extraction", zap.String("url", pdfURL))

	final, err := runner.Invoke(ctx, workflow.State{PdfURL: pdfURL})
	if err != nil {
		logger.Error("Workflow failed", zap.Error(err))
		return result
	}
	if final.Err != "" {
		logger.Info("Workflow finished with degraded stages", zap.String("lastError", final.Err))
	}
	if final.FinalResult != nil {
		result = final.FinalResult
	}
	return result
}
