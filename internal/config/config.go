package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the per-run settings. Constructed once at startup, never
// mutated afterwards.
type Config struct {
	ModelPath      string `yaml:"model_path"`
	PDFDir         string `yaml:"pdf_dir"`
	EmbeddingModel string `yaml:"embedding_model"`
	NCtx           int    `yaml:"n_ctx"`
	Question       string `yaml:"question"`
	TopK           int    `yaml:"top_k"`
	LlamaServer    string `yaml:"llama_server"`
	OllamaURL      string `yaml:"ollama_url"`
	Verbose        bool   `yaml:"-"`
}

const (
	defaultPDFDir         = "./pdf"
	defaultEmbeddingModel = "BAAI/bge-small-en-v1.5"
	defaultNCtx           = 4096
	defaultTopK           = 4
	defaultLlamaServer    = "llama-server"
	defaultOllamaURL      = "http://localhost:11434"
)

func defaults() *Config {
	return &Config{
		PDFDir:         defaultPDFDir,
		EmbeddingModel: defaultEmbeddingModel,
		NCtx:           defaultNCtx,
		TopK:           defaultTopK,
		LlamaServer:    defaultLlamaServer,
		OllamaURL:      defaultOllamaURL,
	}
}

// Parse resolves the configuration from args with precedence
// flag > environment > yaml config file > built-in default.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("pdf-rag", flag.ContinueOnError)

	configPath := fs.String("config", "", "Optional path to a YAML config file")
	modelPath := fs.String("model-path", "", "Absolute path to your GGUF model file")
	pdfDir := fs.String("pdf-dir", "", "Directory containing input PDFs")
	embeddingModel := fs.String("embedding-model", "", "Embedding model identifier")
	nCtx := fs.Int("n-ctx", 0, "Context window for the generation model")
	question := fs.String("question", "", "Question to ask of each PDF")
	topK := fs.Int("top-k", 0, "Number of chunks to retrieve per query")
	llamaServer := fs.String("llama-server", "", "Path or name of the llama-server binary")
	ollamaURL := fs.String("ollama-url", "", "Base URL of the local ollama embedding server")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := defaults()

	if *configPath != "" {
		if err := loadFile(*configPath, cfg); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	applyEnv(cfg)

	// Only flags explicitly set on the command line override.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model-path":
			cfg.ModelPath = *modelPath
		case "pdf-dir":
			cfg.PDFDir = *pdfDir
		case "embedding-model":
			cfg.EmbeddingModel = *embeddingModel
		case "n-ctx":
			cfg.NCtx = *nCtx
		case "question":
			cfg.Question = *question
		case "top-k":
			cfg.TopK = *topK
		case "llama-server":
			cfg.LlamaServer = *llamaServer
		case "ollama-url":
			cfg.OllamaURL = *ollamaURL
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	return cfg, nil
}

// loadFile overlays non-empty values from a YAML file onto cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	if fileCfg.ModelPath != "" {
		cfg.ModelPath = fileCfg.ModelPath
	}
	if fileCfg.PDFDir != "" {
		cfg.PDFDir = fileCfg.PDFDir
	}
	if fileCfg.EmbeddingModel != "" {
		cfg.EmbeddingModel = fileCfg.EmbeddingModel
	}
	if fileCfg.NCtx != 0 {
		cfg.NCtx = fileCfg.NCtx
	}
	if fileCfg.Question != "" {
		cfg.Question = fileCfg.Question
	}
	if fileCfg.TopK != 0 {
		cfg.TopK = fileCfg.TopK
	}
	if fileCfg.LlamaServer != "" {
		cfg.LlamaServer = fileCfg.LlamaServer
	}
	if fileCfg.OllamaURL != "" {
		cfg.OllamaURL = fileCfg.OllamaURL
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}
	if v := os.Getenv("PDF_DIR"); v != "" {
		cfg.PDFDir = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("N_CTX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NCtx = n
		}
	}
	if v := os.Getenv("QUESTION"); v != "" {
		cfg.Question = v
	}
	if v := os.Getenv("TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
	if v := os.Getenv("LLAMA_SERVER"); v != "" {
		cfg.LlamaServer = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
}

// Validate checks the configuration and returns the first problem found.
// Every failure here is a permanent operator error; the caller is expected
// to print it with an "ERROR:" prefix and exit with status 2.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("--model-path is required (or set MODEL_PATH in .env)")
	}
	if !filepath.IsAbs(c.ModelPath) {
		return fmt.Errorf("--model-path must be an absolute path to the GGUF file")
	}
	if _, err := os.Stat(c.ModelPath); err != nil {
		return fmt.Errorf("model file not found: %s", c.ModelPath)
	}
	info, err := os.Stat(c.PDFDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("pdf directory not found: %s", c.PDFDir)
	}
	if c.Question == "" {
		return fmt.Errorf("--question is required (or set QUESTION in .env)")
	}
	if c.NCtx <= 0 {
		return fmt.Errorf("--n-ctx must be a positive integer")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("--top-k must be a positive integer")
	}
	return nil
}
