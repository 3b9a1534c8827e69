package runner

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	"github.com/AvaProtocol/aa-gasbench/core/chainio"
	"github.com/AvaProtocol/aa-gasbench/core/chainio/signer"
	"github.com/AvaProtocol/aa-gasbench/core/config"
	"github.com/AvaProtocol/aa-gasbench/core/report"
	"github.com/AvaProtocol/aa-gasbench/metrics"
	"github.com/AvaProtocol/aa-gasbench/model"
	"github.com/AvaProtocol/aa-gasbench/pkg/erc4337/preset"
	"github.com/AvaProtocol/aa-gasbench/storage"
)

// Options tune a single run on top of the config file.
type Options struct {
	// KeepGoing moves on to the next bundle after a failure instead of
	// stopping the run. Failed bundles are recorded either way.
	KeepGoing bool
}

// Runner submits a list of bundles through one Environment and records
// what every bundle cost.
type Runner struct {
	logger  sdklogging.Logger
	config  *config.Config
	env     *preset.Environment
	metrics metrics.MetricsGenerator
	writer  *report.ResultsWriter
	runs    *storage.RunStore
	opts    Options
}

// RunWithConfig dials the configured chain and runs bundles end to end:
// results.json is written and the run is saved in the local store.
func RunWithConfig(ctx context.Context, cfg *config.Config, bundles []model.BundleDescriptor, opts Options) (*report.Results, error) {
	owner := signer.NewKeySigner(cfg.EcdsaPrivateKey)

	chain, err := chainio.Dial(ctx, cfg.EthRpcUrl, owner.Transactor, cfg.Logger)
	if err != nil {
		return nil, model.WrapNetworkError("failed to connect to rpc", err, map[string]interface{}{"rpc": cfg.EthRpcUrl})
	}
	defer chain.Close()

	var db storage.Storage
	if cfg.DbPath != "" {
		db, err = storage.NewWithPath(cfg.DbPath)
	} else {
		db, err = storage.NewInMemory()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	benchMetrics := metrics.NewBenchMetrics(cfg.MetricsIpPortAddress, reg, cfg.Logger)
	if cfg.MetricsIpPortAddress != "" {
		metricsErrChan := benchMetrics.Start(ctx, reg)
		go func() {
			if err, ok := <-metricsErrChan; ok && err != nil {
				cfg.Logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	r := New(cfg, chain, owner, db, benchMetrics, opts)
	return r.Run(ctx, bundles)
}

// New wires a runner around an existing chain, signer and store.
func New(cfg *config.Config, chain chainio.Chain, s signer.Signer, db storage.Storage, m metrics.MetricsGenerator, opts Options) *Runner {
	env := preset.NewEnvironment(chain, s, preset.Options{
		Addresses:        cfg.Addresses,
		PriorityFee:      cfg.PriorityFee,
		PaymasterDeposit: cfg.PaymasterDeposit,
	}, cfg.Logger)

	return &Runner{
		logger:  cfg.Logger,
		config:  cfg,
		env:     env,
		metrics: m,
		writer:  report.NewResultsWriter(env.Names()),
		runs:    storage.NewRunStore(db),
		opts:    opts,
	}
}

func (r *Runner) RunID() string {
	return r.writer.RunID()
}

// Run initializes the environment and submits bundles in order. Whatever
// finished is persisted even when the run stops on an error.
func (r *Runner) Run(ctx context.Context, bundles []model.BundleDescriptor) (*report.Results, error) {
	r.logger.Info("starting benchmark run", "runId", r.writer.RunID(), "bundles", len(bundles))

	if err := r.env.Init(ctx); err != nil {
		return nil, err
	}

	var runErr error
	for _, bundle := range bundles {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}

		r.metrics.IncBundleSubmitted(bundle.Name)
		result, err := r.env.SubmitBundle(ctx, bundle)
		if err != nil {
			r.metrics.IncBundleResult(bundle.Name, metrics.StatusFailed)
			if code, ok := model.CodeOf(err); ok {
				r.metrics.IncErrorCode(string(code))
			}
			r.writer.AddResult(model.NewFailedBundleResult(bundle.Name, bundle.Size(), err))
			if r.opts.KeepGoing {
				r.logger.Warn("bundle failed, continuing", "bundle", bundle.Name, "error", err)
				continue
			}
			runErr = err
			break
		}

		r.metrics.IncBundleResult(bundle.Name, metrics.StatusSuccess)
		r.metrics.ObserveBundleGas(result.GasUsed, result.OpCount)
		r.writer.AddResult(result)
	}

	results, err := r.persist()
	if err != nil {
		if runErr != nil {
			r.logger.Error("failed to persist results", "error", err)
			return results, runErr
		}
		return results, err
	}
	return results, runErr
}

func (r *Runner) persist() (*report.Results, error) {
	results := r.writer.Results()

	if r.config.ResultsPath != "" {
		if err := r.writer.WriteResults(r.config.ResultsPath); err != nil {
			return &results, fmt.Errorf("failed to write %s: %w", r.config.ResultsPath, err)
		}
	}
	if err := r.runs.SaveRun(results); err != nil {
		return &results, fmt.Errorf("failed to save run %s: %w", results.RunID, err)
	}

	r.logger.Info("benchmark run finished",
		"runId", results.RunID,
		"bundles", len(results.Bundles),
		"resultsPath", r.config.ResultsPath)
	return &results, nil
}
