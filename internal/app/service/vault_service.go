package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/configloader"
	"vault_client/internal/infrastructure/contracts"
	"vault_client/internal/pkg/metrics"
	"vault_client/internal/pkg/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Pipeline stage names, used in logs, metrics and StageError.
const (
	StageBasicInfo     = "basic_info"
	StageStrategy      = "strategy"
	StageTokenBalances = "token_balances"
	StagePositions     = "positions"
	StagePrices        = "prices"
	StageTVL           = "tvl"
	StageUserVaults    = "user_vaults"
	StageUserPositions = "user_positions"
)

const (
	defaultAdapterTimeout = 30 * time.Second
	defaultCallLimit      = 10
)

// vaultServiceImpl implements port.VaultService.
type vaultServiceImpl struct {
	resolver   port.ContractResolver
	strategies port.StrategyService
	tokens     port.TokenProvider
	adapters   port.AdapterProvider
	prices     port.PriceService
	metrics    *metrics.Metrics
	logger     port.Logger

	maxConcurrentVaults int
	maxConcurrentCalls  int
	adapterTimeout      time.Duration
	now                 func() time.Time
}

// NewVaultService creates a new instance of vaultServiceImpl.
func NewVaultService(
	resolver port.ContractResolver,
	strategies port.StrategyService,
	tokens port.TokenProvider,
	adapters port.AdapterProvider,
	prices port.PriceService,
	m *metrics.Metrics,
	l port.Logger,
	cfg *configloader.Config,
) port.VaultService {
	s := &vaultServiceImpl{
		resolver:            resolver,
		strategies:          strategies,
		tokens:              tokens,
		adapters:            adapters,
		prices:              prices,
		metrics:             m,
		logger:              l,
		maxConcurrentVaults: 1,
		maxConcurrentCalls:  defaultCallLimit,
		adapterTimeout:      defaultAdapterTimeout,
		now:                 time.Now,
	}
	if cfg != nil {
		if cfg.Performance.MaxConcurrentVaults > 0 {
			s.maxConcurrentVaults = cfg.Performance.MaxConcurrentVaults
		}
		if cfg.Performance.MaxConcurrentRoutines > 0 {
			s.maxConcurrentCalls = cfg.Performance.MaxConcurrentRoutines
		}
		if cfg.Performance.AdapterTimeoutSeconds > 0 {
			s.adapterTimeout = time.Duration(cfg.Performance.AdapterTimeoutSeconds) * time.Second
		}
	}
	l.Info("VaultService успешно инициализирован.",
		"max_concurrent_vaults", s.maxConcurrentVaults,
		"max_concurrent_calls", s.maxConcurrentCalls,
		"adapter_timeout", s.adapterTimeout)
	return s
}

// vaultRun carries the state of one vault through the pipeline.
type vaultRun struct {
	chainID    uint64
	reader     port.ChainReader
	address    common.Address
	adapters   []port.PlatformAdapter
	strategies map[string]entity.StrategyRef

	mu       sync.Mutex
	partial  bool
	reasons  []string
	vault    *entity.Vault
	balances []entity.TokenBalance
	found    *entity.AdapterPositions
}

func (r *vaultRun) markPartial(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partial = true
	r.reasons = append(r.reasons, reason)
}

// GetVaultData aggregates a single vault. Failures are reported in the envelope, never returned.
func (s *vaultServiceImpl) GetVaultData(ctx context.Context, vaultAddress string, reader port.ChainReader, chainID uint64) entity.VaultDataResult {
	if err := checkArguments("vault address", vaultAddress, reader, chainID); err != nil {
		return entity.VaultDataResult{Success: false, Error: err.Error()}
	}
	res, err := s.aggregateVault(ctx, common.HexToAddress(vaultAddress), reader, chainID,
		s.resolver.StrategyAddressMap(chainID), s.adapters.GetAdapters(chainID, reader))
	if err != nil {
		return entity.VaultDataResult{Success: false, Error: err.Error()}
	}
	return res
}

// GetAllUserVaultData aggregates every vault of a user plus the user's own positions.
func (s *vaultServiceImpl) GetAllUserVaultData(ctx context.Context, userAddress string, reader port.ChainReader, chainID uint64) entity.UserVaultDataResult {
	if err := checkArguments("user address", userAddress, reader, chainID); err != nil {
		return entity.UserVaultDataResult{Success: false, Error: err.Error()}
	}
	user := common.HexToAddress(userAddress)

	start := time.Now()
	factory, err := s.resolver.GetContract(ctx, contracts.VaultFactory, reader)
	if err != nil {
		s.fatal(StageUserVaults, user.Hex(), chainID, err)
		return entity.UserVaultDataResult{Success: false, Error: fmt.Sprintf("failed to resolve vault factory: %v", err)}
	}
	out, err := factory.Call(ctx, "getVaults", user)
	s.metrics.ObserveStage(StageUserVaults, start)
	if err != nil {
		s.fatal(StageUserVaults, user.Hex(), chainID, err)
		return entity.UserVaultDataResult{Success: false, Error: fmt.Sprintf("failed to list user vaults: %v", err)}
	}
	vaultAddrs, ok := out[0].([]common.Address)
	if !ok {
		return entity.UserVaultDataResult{Success: false, Error: fmt.Sprintf("unexpected getVaults result %T", out[0])}
	}

	strategyMap := s.resolver.StrategyAddressMap(chainID)
	adapters := s.adapters.GetAdapters(chainID, reader)

	results := make([]entity.VaultDataResult, len(vaultAddrs))
	failures := make([]error, len(vaultAddrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentVaults)
	for i, addr := range vaultAddrs {
		i, addr := i, addr
		g.Go(func() error {
			res, err := s.aggregateVault(gctx, addr, reader, chainID, strategyMap, adapters)
			results[i], failures[i] = res, err
			return nil
		})
	}
	_ = g.Wait()

	result := entity.UserVaultDataResult{
		Success:   true,
		Vaults:    make([]entity.VaultDataResult, 0, len(vaultAddrs)),
		PoolData:  make(map[string]entity.PoolData),
		TokenData: make(map[string]entity.TokenMetadata),
		Positions: entity.PositionPartition{
			VaultPositions:    []entity.Position{},
			NonVaultPositions: []entity.Position{},
		},
	}

	// platform:id -> позиция принадлежит хранилищу
	inVault := make(map[string]struct{})
	for i, res := range results {
		if err := failures[i]; err != nil {
			failure := entity.VaultFailure{Address: vaultAddrs[i].Hex(), Error: err.Error()}
			var stageErr *entity.StageError
			if errors.As(err, &stageErr) {
				failure.Stage = stageErr.Stage
			}
			result.FailedVaults = append(result.FailedVaults, failure)
			continue
		}
		result.Vaults = append(result.Vaults, res)
		mergeMetadata(result.PoolData, result.TokenData, res.PoolData, res.TokenData)
		for _, p := range res.Positions {
			inVault[positionKey(p)] = struct{}{}
			result.Positions.VaultPositions = append(result.Positions.VaultPositions, p)
		}
	}

	start = time.Now()
	own := s.collectPositions(ctx, user, chainID, adapters, StageUserPositions, nil)
	s.metrics.ObserveStage(StageUserPositions, start)
	mergeMetadata(result.PoolData, result.TokenData, own.PoolData, own.TokenData)
	for _, p := range own.Positions {
		if _, ok := inVault[positionKey(p)]; ok {
			continue
		}
		p.InVault = false
		p.VaultAddress = ""
		result.Positions.NonVaultPositions = append(result.Positions.NonVaultPositions, p)
	}

	s.logger.Info("User vault data aggregated",
		"user", user.Hex(),
		"chain_id", chainID,
		"vaults", len(result.Vaults),
		"failed_vaults", len(result.FailedVaults),
		"vault_positions", len(result.Positions.VaultPositions),
		"non_vault_positions", len(result.Positions.NonVaultPositions))
	return result
}

func checkArguments(what, address string, reader port.ChainReader, chainID uint64) error {
	switch {
	case strings.TrimSpace(address) == "":
		return fmt.Errorf("%w: %s", entity.ErrMissingArgument, what)
	case reader == nil:
		return fmt.Errorf("%w: chain reader", entity.ErrMissingArgument)
	case chainID == 0:
		return fmt.Errorf("%w: chain id", entity.ErrMissingArgument)
	case !common.IsHexAddress(address):
		return fmt.Errorf("%w: %s %q", entity.ErrInvalidArgument, what, address)
	}
	return nil
}

// aggregateVault runs stages 2-7 for one vault. The returned error is always a *entity.StageError.
func (s *vaultServiceImpl) aggregateVault(
	ctx context.Context,
	address common.Address,
	reader port.ChainReader,
	chainID uint64,
	strategyMap map[string]entity.StrategyRef,
	adapters []port.PlatformAdapter,
) (entity.VaultDataResult, error) {
	run := &vaultRun{
		chainID:    chainID,
		reader:     reader,
		address:    address,
		adapters:   adapters,
		strategies: strategyMap,
	}

	if err := s.loadBasicInfo(ctx, run); err != nil {
		return s.failVault(run, StageBasicInfo, err)
	}
	if err := s.loadStrategy(ctx, run); err != nil {
		return s.failVault(run, StageStrategy, err)
	}

	// балансы и позиции читаются параллельно
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		run.balances = s.loadTokenBalances(ctx, run)
		s.metrics.ObserveStage(StageTokenBalances, start)
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		run.found = s.collectPositions(ctx, address, chainID, adapters, StagePositions, run)
		s.metrics.ObserveStage(StagePositions, start)
	}()
	wg.Wait()

	for i := range run.found.Positions {
		run.found.Positions[i].InVault = true
		run.found.Positions[i].VaultAddress = address.Hex()
	}

	s.prefetchPrices(ctx, run)

	start := time.Now()
	tokenTVL := s.valueBalances(run)
	tvl := s.valuePositions(run)
	s.metrics.ObserveStage(StageTVL, start)

	v := run.vault
	v.Positions = make([]string, 0, len(run.found.Positions))
	for _, p := range run.found.Positions {
		v.Positions = append(v.Positions, p.ID)
	}
	v.Metrics = entity.VaultMetrics{
		TVL:            tvl,
		TokenTVL:       tokenTVL,
		HasPartialData: run.partial,
		PositionCount:  len(run.found.Positions),
		LastTVLUpdate:  s.now().UnixMilli(),
	}

	outcome := "ok"
	if run.partial {
		outcome = "partial"
		for _, reason := range uniqueStrings(run.reasons) {
			s.metrics.Partial(reason)
		}
	}
	s.metrics.VaultProcessed(outcome)
	s.logger.Debug("Vault aggregated",
		"vault", address.Hex(),
		"chain_id", chainID,
		"positions", len(run.found.Positions),
		"tokens", len(run.balances),
		"tvl", tvl,
		"token_tvl", tokenTVL,
		"partial", run.partial)

	return entity.VaultDataResult{
		Success:         true,
		Vault:           v,
		Positions:       run.found.Positions,
		VaultTokens:     run.balances,
		TotalTokenValue: tokenTVL,
		PoolData:        run.found.PoolData,
		TokenData:       run.found.TokenData,
	}, nil
}

// parameterShapeError turns a getAllParameters result that does not fit the ABI into a decode error.
func parameterShapeError(strategyID string, err *contracts.UnpackError) error {
	if err.Err == nil {
		return fmt.Errorf("%w: %w", &entity.ArityError{StrategyID: strategyID, Expected: err.Expected, Got: err.Got}, err)
	}
	return fmt.Errorf("strategy %s: undecodable parameters: %w", strategyID, err)
}

func (s *vaultServiceImpl) failVault(run *vaultRun, stage string, err error) (entity.VaultDataResult, error) {
	var stageErr *entity.StageError
	if !errors.As(err, &stageErr) {
		stageErr = &entity.StageError{Stage: stage, Vault: run.address.Hex(), Err: err}
	}
	s.fatal(stage, run.address.Hex(), run.chainID, stageErr.Err)
	s.metrics.VaultProcessed("failed")
	return entity.VaultDataResult{Success: false, Error: stageErr.Error()}, stageErr
}

// loadBasicInfo reads executor and strategy from the vault and owner, name and
// creation time from the factory. Only the vault reads are fatal; factory
// metadata degrades to empty fields.
func (s *vaultServiceImpl) loadBasicInfo(ctx context.Context, run *vaultRun) error {
	defer s.metrics.ObserveStage(StageBasicInfo, time.Now())

	vault, err := s.resolver.GetContractAt(run.chainID, contracts.PositionVault, run.address.Hex(), run.reader)
	if err != nil {
		return err
	}
	factory, factoryErr := s.resolver.GetContract(ctx, contracts.VaultFactory, run.reader)
	if factoryErr != nil {
		s.degraded(StageBasicInfo, run, "", factoryErr)
		run.markPartial("vault_factory")
	}

	var (
		executor, strategy common.Address
		info               []any
		infoErr            error
		infoWG             sync.WaitGroup
	)
	if factory != nil {
		infoWG.Add(1)
		go func() {
			defer infoWG.Done()
			info, infoErr = factory.Call(ctx, "getVaultInfo", run.address)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := vault.Call(gctx, "executor")
		if err != nil {
			return err
		}
		executor, err = addressAt(out, 0)
		return err
	})
	g.Go(func() error {
		out, err := vault.Call(gctx, "strategy")
		if err != nil {
			return err
		}
		strategy, err = addressAt(out, 0)
		return err
	})
	err = g.Wait()
	infoWG.Wait()
	if err != nil {
		return err
	}

	v := &entity.Vault{
		Address:           run.address.Hex(),
		Executor:          executor.Hex(),
		HasActiveStrategy: strategy != (common.Address{}),
		Positions:         []string{},
		Parameters:        entity.ParamValues{},
	}
	if v.HasActiveStrategy {
		v.StrategyAddress = strategy.Hex()
	}
	if factory != nil {
		if infoErr == nil {
			infoErr = applyVaultInfo(v, info)
		}
		if infoErr != nil {
			s.degraded(StageBasicInfo, run, "", infoErr)
			run.markPartial("vault_factory")
		}
	}
	run.vault = v
	return nil
}

// applyVaultInfo copies the factory's (owner, name, creationTime) tuple into v.
func applyVaultInfo(v *entity.Vault, info []any) error {
	if len(info) != 3 {
		return fmt.Errorf("unexpected getVaultInfo result with %d values", len(info))
	}
	owner, err := addressAt(info, 0)
	if err != nil {
		return err
	}
	v.Owner = owner.Hex()
	v.Name, _ = info[1].(string)
	if created, ok := info[2].(*big.Int); ok && created.IsInt64() {
		v.CreationTime = created.Int64()
	}
	return nil
}

// loadStrategy decodes the strategy attached to the vault. Read failures degrade,
// decode failures are fatal.
func (s *vaultServiceImpl) loadStrategy(ctx context.Context, run *vaultRun) error {
	v := run.vault
	if !v.HasActiveStrategy {
		return nil
	}
	defer s.metrics.ObserveStage(StageStrategy, time.Now())

	ref, ok := run.strategies[strings.ToLower(v.StrategyAddress)]
	if !ok {
		s.degraded(StageStrategy, run, "", fmt.Errorf("unknown strategy contract %s", v.StrategyAddress))
		run.markPartial("unknown_strategy")
		return nil
	}
	if _, err := s.strategies.GetStrategy(ref.StrategyID); err != nil {
		s.degraded(StageStrategy, run, "", err)
		run.markPartial("strategy_schema")
		return nil
	}
	contract, err := s.resolver.GetContractAt(run.chainID, ref.ContractKey, v.StrategyAddress, run.reader)
	if err != nil {
		s.degraded(StageStrategy, run, "", err)
		run.markPartial("strategy_contract")
		return nil
	}

	var (
		template  uint8
		bitmap    *big.Int
		rawParams []any
		tokens    []string
		platforms []string
		decodeErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := contract.Call(gctx, "selectedTemplate", run.address)
		if err != nil {
			return err
		}
		t, ok := out[0].(uint8)
		if !ok {
			return fmt.Errorf("unexpected selectedTemplate result %T", out[0])
		}
		template = t
		return nil
	})
	g.Go(func() error {
		out, err := contract.Call(gctx, "customizationBitmap", run.address)
		if err != nil {
			return err
		}
		b, ok := out[0].(*big.Int)
		if !ok {
			return fmt.Errorf("unexpected customizationBitmap result %T", out[0])
		}
		bitmap = b
		return nil
	})
	g.Go(func() error {
		out, err := contract.CallExact(gctx, "getAllParameters", run.address)
		var unpackErr *contracts.UnpackError
		if errors.As(err, &unpackErr) {
			// кортеж не совпадает с ABI: это ошибка декодирования, а не чтения
			decodeErr = parameterShapeError(ref.StrategyID, unpackErr)
			return nil
		}
		rawParams = out
		return err
	})
	readErr := g.Wait()
	if decodeErr != nil {
		return &entity.StageError{Stage: StageStrategy, Vault: run.address.Hex(), Err: decodeErr}
	}
	if readErr != nil {
		s.degraded(StageStrategy, run, "", readErr)
		run.markPartial("strategy_read")
		return nil
	}

	// выбранные токены и платформы не обязательны
	sg, sctx := errgroup.WithContext(ctx)
	sg.Go(func() error {
		out, err := contract.Call(sctx, "getSelectedTokens", run.address)
		if err != nil {
			return err
		}
		tokens, _ = out[0].([]string)
		return nil
	})
	sg.Go(func() error {
		out, err := contract.Call(sctx, "getSelectedPlatforms", run.address)
		if err != nil {
			return err
		}
		platforms, _ = out[0].([]string)
		return nil
	})
	if err := sg.Wait(); err != nil {
		s.degraded(StageStrategy, run, "", err)
		run.markPartial("strategy_selection")
	}

	params, err := s.strategies.DecodeParameters(ref.StrategyID, rawParams)
	if err != nil {
		return &entity.StageError{Stage: StageStrategy, Vault: run.address.Hex(), Err: err}
	}
	schema, err := s.strategies.GetStrategy(ref.StrategyID)
	if err != nil {
		return &entity.StageError{Stage: StageStrategy, Vault: run.address.Hex(), Err: err}
	}

	if tokens == nil {
		tokens = []string{}
	}
	if platforms == nil {
		platforms = []string{}
	}
	v.Parameters = params
	v.Strategy = &entity.StrategyInstance{
		StrategyID:          ref.StrategyID,
		StrategyAddress:     v.StrategyAddress,
		SelectedTokens:      tokens,
		SelectedPlatforms:   platforms,
		Parameters:          params,
		ActiveTemplate:      schema.TemplateForEnum(template),
		CustomizationBitmap: bitmap.String(),
		LastUpdated:         s.now().UnixMilli(),
	}
	return nil
}

// loadTokenBalances returns the non-zero balances of every table token on the chain,
// sorted by symbol.
func (s *vaultServiceImpl) loadTokenBalances(ctx context.Context, run *vaultRun) []entity.TokenBalance {
	tokens := s.tokens.GetTokensByChain(run.chainID)
	if len(tokens) == 0 {
		return []entity.TokenBalance{}
	}

	var amounts []*big.Int
	var errs []error
	if batch, ok := run.reader.(port.BatchChainReader); ok {
		amounts, errs = s.batchBalances(ctx, batch, run, tokens)
	} else {
		amounts, errs = s.singleBalances(ctx, run, tokens)
	}

	balances := make([]entity.TokenBalance, 0, len(tokens))
	for i, t := range tokens {
		if errs[i] != nil {
			s.degraded(StageTokenBalances, run, "", fmt.Errorf("%s balance: %w", t.Symbol, errs[i]))
			run.markPartial("token_balance")
			continue
		}
		if amounts[i] == nil || amounts[i].Sign() == 0 {
			continue
		}
		formatted := utils.FormatUnits(amounts[i], t.Decimals)
		numeric, _ := decimal.NewFromBigInt(amounts[i], -int32(t.Decimals)).Float64()
		balances = append(balances, entity.TokenBalance{
			Symbol:           t.Symbol,
			Name:             t.Name,
			Address:          common.HexToAddress(t.Address).Hex(),
			Balance:          formatted,
			NumericalBalance: numeric,
			Decimals:         t.Decimals,
			LogoURI:          t.LogoURI,
		})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Symbol < balances[j].Symbol })
	return balances
}

// batchBalances sends every balanceOf in one batch request.
func (s *vaultServiceImpl) batchBalances(ctx context.Context, reader port.BatchChainReader, run *vaultRun, tokens []entity.ChainToken) ([]*big.Int, []error) {
	amounts := make([]*big.Int, len(tokens))
	errs := make([]error, len(tokens))

	erc20, _ := contracts.ABI(contracts.ERC20)
	input, err := erc20.Pack("balanceOf", run.address)
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return amounts, errs
	}
	msgs := make([]ethereum.CallMsg, len(tokens))
	for i, t := range tokens {
		to := common.HexToAddress(t.Address)
		msgs[i] = ethereum.CallMsg{To: &to, Data: input}
	}

	outputs, callErrs, err := reader.BatchCallContract(ctx, msgs)
	chainLabel := strconv.FormatUint(run.chainID, 10)
	for i := range tokens {
		switch {
		case err != nil:
			errs[i] = err
		case i >= len(outputs) || i >= len(callErrs):
			errs[i] = errors.New("batch response is missing an element")
		case callErrs[i] != nil:
			errs[i] = callErrs[i]
		case len(outputs[i]) == 0:
			errs[i] = contracts.ErrNoContractCode
		default:
			values, unpackErr := erc20.Unpack("balanceOf", outputs[i])
			if unpackErr != nil {
				errs[i] = unpackErr
				break
			}
			amount, ok := values[0].(*big.Int)
			if !ok {
				errs[i] = fmt.Errorf("unexpected balanceOf result %T", values[0])
				break
			}
			amounts[i] = amount
		}
		s.metrics.RPCCall(chainLabel, errs[i])
	}
	return amounts, errs
}

func (s *vaultServiceImpl) singleBalances(ctx context.Context, run *vaultRun, tokens []entity.ChainToken) ([]*big.Int, []error) {
	amounts := make([]*big.Int, len(tokens))
	errs := make([]error, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentCalls)
	for i, t := range tokens {
		i, t := i, t
		g.Go(func() error {
			token, err := s.resolver.GetContractAt(run.chainID, contracts.ERC20, t.Address, run.reader)
			if err != nil {
				errs[i] = err
				return nil
			}
			out, err := token.Call(gctx, "balanceOf", run.address)
			if err != nil {
				errs[i] = err
				return nil
			}
			amount, ok := out[0].(*big.Int)
			if !ok {
				errs[i] = fmt.Errorf("unexpected balanceOf result %T", out[0])
				return nil
			}
			amounts[i] = amount
			return nil
		})
	}
	_ = g.Wait()
	return amounts, errs
}

// collectPositions asks every adapter for the positions of owner. Adapter failures are
// logged and skipped; run may be nil outside the vault pipeline.
func (s *vaultServiceImpl) collectPositions(
	ctx context.Context,
	owner common.Address,
	chainID uint64,
	adapters []port.PlatformAdapter,
	stage string,
	run *vaultRun,
) *entity.AdapterPositions {
	found := make([]*entity.AdapterPositions, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, s.adapterTimeout)
			defer cancel()
			res, err := a.GetPositions(actx, owner.Hex(), chainID)
			if err != nil {
				s.metrics.AdapterError(a.PlatformID())
				s.metrics.StageError(stage)
				s.logger.Warn("Platform adapter failed, positions skipped",
					"stage", stage,
					"vault", owner.Hex(),
					"chain_id", chainID,
					"platform", a.PlatformID(),
					"error", err)
				if run != nil {
					run.markPartial("adapter")
				}
				return nil
			}
			found[i] = res
			return nil
		})
	}
	_ = g.Wait()

	merged := &entity.AdapterPositions{
		Positions: []entity.Position{},
		PoolData:  make(map[string]entity.PoolData),
		TokenData: make(map[string]entity.TokenMetadata),
	}
	for _, res := range found {
		if res == nil {
			continue
		}
		merged.Positions = append(merged.Positions, res.Positions...)
		mergeMetadata(merged.PoolData, merged.TokenData, res.PoolData, res.TokenData)
	}
	sort.SliceStable(merged.Positions, func(i, j int) bool {
		a, b := merged.Positions[i], merged.Positions[j]
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return lessNumeric(a.ID, b.ID)
	})
	return merged
}

// prefetchPrices loads every symbol the valuation stage will need in one call.
func (s *vaultServiceImpl) prefetchPrices(ctx context.Context, run *vaultRun) {
	symbols := make([]string, 0, len(run.balances)+len(run.found.TokenData))
	for _, b := range run.balances {
		symbols = append(symbols, b.Symbol)
	}
	for _, t := range run.found.TokenData {
		if t.Symbol != "" {
			symbols = append(symbols, t.Symbol)
		}
	}
	if len(symbols) == 0 {
		return
	}

	start := time.Now()
	if err := s.prices.PrefetchPrices(ctx, run.chainID, symbols); err != nil {
		s.degraded(StagePrices, run, "", err)
	}
	s.metrics.ObserveStage(StagePrices, start)
}

// valueBalances fills ValueUSD and returns the summed token value.
func (s *vaultServiceImpl) valueBalances(run *vaultRun) float64 {
	total := decimal.Zero
	for i := range run.balances {
		b := &run.balances[i]
		usd, ok := s.prices.GetUSDValueSync(b.Balance, b.Symbol)
		if !ok {
			s.logger.Debug("No price for vault token", "vault", run.address.Hex(), "symbol", b.Symbol)
			run.markPartial("price")
			continue
		}
		b.ValueUSD = usd
		total = total.Add(decimal.NewFromFloat(usd))
	}
	return total.InexactFloat64()
}

// valuePositions sums the USD value of every position's underlying tokens.
// Anything missing marks the result partial and contributes what is known.
func (s *vaultServiceImpl) valuePositions(run *vaultRun) float64 {
	byPlatform := make(map[string]port.PlatformAdapter, len(run.adapters))
	for _, a := range run.adapters {
		byPlatform[a.PlatformID()] = a
	}

	total := decimal.Zero
	for _, p := range run.found.Positions {
		pool, ok := run.found.PoolData[p.PoolAddress]
		if !ok {
			s.degraded(StageTVL, run, p.Platform, fmt.Errorf("no pool data for position %s", p.ID))
			run.markPartial("pool_data")
			continue
		}
		t0, ok0 := run.found.TokenData[p.Token0]
		t1, ok1 := run.found.TokenData[p.Token1]
		if !ok0 || !ok1 || t0.Symbol == "" || t1.Symbol == "" {
			s.degraded(StageTVL, run, p.Platform, fmt.Errorf("missing token metadata for position %s", p.ID))
			run.markPartial("token_data")
			continue
		}
		adapter, ok := byPlatform[p.Platform]
		if !ok {
			s.degraded(StageTVL, run, p.Platform, fmt.Errorf("no adapter for position %s", p.ID))
			run.markPartial("adapter")
			continue
		}
		amounts, err := adapter.CalculateTokenAmounts(p, pool, t0, t1, run.chainID)
		if err != nil || amounts == nil {
			if err == nil {
				err = errors.New("adapter returned no amounts")
			}
			s.degraded(StageTVL, run, p.Platform, fmt.Errorf("position %s: %w", p.ID, err))
			run.markPartial("amounts")
			continue
		}

		for _, side := range []struct {
			amount string
			symbol string
		}{
			{amounts.Token0.Formatted, t0.Symbol},
			{amounts.Token1.Formatted, t1.Symbol},
		} {
			usd, ok := s.prices.GetUSDValueSync(side.amount, side.symbol)
			if !ok {
				run.markPartial("price")
				continue
			}
			total = total.Add(decimal.NewFromFloat(usd))
		}
	}
	return total.InexactFloat64()
}

func (s *vaultServiceImpl) degraded(stage string, run *vaultRun, platform string, err error) {
	s.metrics.StageError(stage)
	s.logger.Warn("Vault pipeline stage degraded",
		"stage", stage,
		"vault", run.address.Hex(),
		"chain_id", run.chainID,
		"platform", platform,
		"error", err)
}

func (s *vaultServiceImpl) fatal(stage, address string, chainID uint64, err error) {
	s.metrics.StageError(stage)
	s.logger.Error("Vault pipeline stage failed",
		"stage", stage,
		"vault", address,
		"chain_id", chainID,
		"error", err)
}

func addressAt(values []any, i int) (common.Address, error) {
	if i >= len(values) {
		return common.Address{}, fmt.Errorf("missing result at index %d", i)
	}
	addr, ok := values[i].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected address result %T", values[i])
	}
	return addr, nil
}

// mergeMetadata copies src into dst, later writers win.
func mergeMetadata(pools map[string]entity.PoolData, tokens map[string]entity.TokenMetadata, srcPools map[string]entity.PoolData, srcTokens map[string]entity.TokenMetadata) {
	for k, v := range srcPools {
		pools[k] = v
	}
	for k, v := range srcTokens {
		tokens[k] = v
	}
}

func positionKey(p entity.Position) string {
	return p.Platform + ":" + p.ID
}

// lessNumeric orders unsigned decimal IDs without parsing them.
func lessNumeric(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
