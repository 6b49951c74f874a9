package inventory

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/saga"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/inventory"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/repository"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/units"
)

// UseCase registra movimientos sobre el libro de insumos y el kardex.
//
// Cada operación valida todo antes de tocar el almacén, aplica el movimiento en memoria
// con inventory.Ledger y persiste con una saga: primero los saldos (compensables),
// al final el kardex (solo se agrega).
type UseCase struct {
	items    repository.StockItemRepository
	journal  repository.MovementJournal
	recipes  repository.RecipeRepository
	config   repository.BusinessConfigRepository
	evidence EvidenceStore
	ledger   inventory.Ledger
	loc      *time.Location
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
}

// NewUseCase construye el caso de uso. evidence puede ser nil; entonces las pérdidas fallan con error de configuración.
func NewUseCase(
	items repository.StockItemRepository,
	journal repository.MovementJournal,
	recipes repository.RecipeRepository,
	config repository.BusinessConfigRepository,
	evidence EvidenceStore,
	ledger inventory.Ledger,
	loc *time.Location,
	log zerolog.Logger,
) *UseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &UseCase{
		items:    items,
		journal:  journal,
		recipes:  recipes,
		config:   config,
		evidence: evidence,
		ledger:   ledger,
		loc:      loc,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      log,
	}
}

// WithClock reemplaza el reloj.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// Outcome saldos finales y movimientos escritos por una operación.
type Outcome struct {
	Items     []*entity.StockItem
	Movements []entity.Movement
	Warnings  []string
}

// SaleLine unidades vendidas de un plato.
type SaleLine struct {
	DishID   string
	DishName string
	Units    decimal.Decimal
}

// ── Insumos ────────────────────────────────────────────────────────────────

// ListItems devuelve todos los insumos en el orden del almacén.
func (uc *UseCase) ListItems(ctx context.Context) ([]*entity.StockItem, error) {
	return uc.items.List(ctx)
}

// GetItem devuelve un insumo o domain.ErrNotFound.
func (uc *UseCase) GetItem(ctx context.Context, id string) (*entity.StockItem, error) {
	return uc.items.GetByID(ctx, id)
}

// CreateItem da de alta un insumo sin stock. El ID se genera si viene vacío.
func (uc *UseCase) CreateItem(ctx context.Context, req dto.CreateStockItemRequest) (*entity.StockItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.Validation("nombre obligatorio")
	}
	if req.ShrinkRate.IsNegative() || req.ShrinkRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, domain.Validation("merma debe estar en [0,1)")
	}
	if req.MinStock.IsNegative() {
		return nil, domain.Validation("stock mínimo negativo")
	}
	conv, err := units.Resolve(purchaseUnit(req.PurchaseUnitInput))
	if err != nil {
		return nil, err
	}
	item := &entity.StockItem{
		ID:                strings.TrimSpace(req.ID),
		Name:              strings.TrimSpace(req.Name),
		Category:          req.Category,
		PurchaseUnitLabel: conv.Label,
		ConversionFactor:  conv.Factor,
		ShrinkRate:        req.ShrinkRate,
		Supplier:          req.Supplier,
		MinStock:          req.MinStock,
	}
	if item.ID == "" {
		item.ID = uc.newID()
	}
	if err := uc.items.Create(ctx, item); err != nil {
		return nil, err
	}
	uc.log.Info().Str("item_id", item.ID).Str("name", item.Name).Msg("insumo creado")
	return item, nil
}

// ── Movimientos ────────────────────────────────────────────────────────────

// RegisterPurchase convierte la compra a unidad base y la aplica. Crea el insumo en su primera compra.
func (uc *UseCase) RegisterPurchase(ctx context.Context, req dto.PurchaseRequest) (*Outcome, error) {
	if strings.TrimSpace(req.Responsible) == "" {
		return nil, domain.Validation("responsable obligatorio")
	}
	if req.TotalPrice.IsNegative() {
		return nil, domain.Validation("precio total negativo")
	}
	conv, err := units.Resolve(purchaseUnit(req.PurchaseUnitInput))
	if err != nil {
		return nil, err
	}
	qty := units.Canonical(conv.Factor, req.Quantity)
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad comprada %s", domain.ErrDivision, req.Quantity)
	}
	date, err := uc.operationDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	created := false
	item, err := uc.items.GetByID(ctx, req.ItemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if strings.TrimSpace(req.ItemName) == "" {
			return nil, domain.Validation("el insumo %s no existe; item_name es obligatorio para crearlo", req.ItemID)
		}
		item = &entity.StockItem{
			ID:                req.ItemID,
			Name:              strings.TrimSpace(req.ItemName),
			Category:          req.ItemCategory,
			PurchaseUnitLabel: conv.Label,
			ConversionFactor:  conv.Factor,
			Supplier:          req.Supplier,
		}
		created = true
	case err != nil:
		return nil, err
	}
	before := snapshot([]*entity.StockItem{item})

	mov, err := uc.ledger.ApplyPurchase(item, qty, req.TotalPrice)
	if err != nil {
		return nil, err
	}
	detail := fmt.Sprintf("Compra %s %s", req.Quantity, conv.Label)
	if req.Supplier != "" {
		detail += " a " + req.Supplier
	}
	movs := []entity.Movement{mov}
	uc.stamp(movs, date, req.Responsible, detail)

	s := saga.New("compra", uc.log).ForItem(item.ID)
	if created {
		s.Add("crear insumo", func(ctx context.Context) error { return uc.items.Create(ctx, item) })
	} else {
		s.AddStep(uc.balanceStep([]*entity.StockItem{item}, before))
	}
	s.Add("kardex", uc.journalStep(movs))
	if err := s.Run(ctx); err != nil {
		return nil, err
	}

	uc.log.Info().Str("item_id", item.ID).Str("qty", qty.String()).Str("unit_cost", mov.UnitCost.String()).
		Bool("created", created).Msg("compra registrada")
	return &Outcome{Items: []*entity.StockItem{item}, Movements: movs}, nil
}

// RegisterConsumption descuenta stock en unidad base. Con stock negativo permitido el saldo puede quedar < 0.
func (uc *UseCase) RegisterConsumption(ctx context.Context, req dto.ConsumptionRequest) (*Outcome, error) {
	if strings.TrimSpace(req.Responsible) == "" {
		return nil, domain.Validation("responsable obligatorio")
	}
	if !req.Quantity.IsPositive() {
		return nil, domain.Validation("cantidad debe ser > 0")
	}
	date, err := uc.operationDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	item, err := uc.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	before := snapshot([]*entity.StockItem{item})
	mov, err := uc.ledger.ApplyConsumption(item, req.Quantity, entity.MovementSaleConsumption)
	if err != nil {
		return nil, err
	}
	detail := req.Detail
	if detail == "" {
		detail = "Consumo manual"
	}
	movs := []entity.Movement{mov}
	uc.stamp(movs, date, req.Responsible, detail)
	if err := uc.persist(ctx, "consumo", item.ID, []*entity.StockItem{item}, before, movs); err != nil {
		return nil, err
	}
	if item.StockQuantity.IsNegative() {
		uc.log.Warn().Str("item_id", item.ID).Str("balance", item.StockQuantity.String()).Msg("saldo negativo")
	}
	return &Outcome{Items: []*entity.StockItem{item}, Movements: movs}, nil
}

// RegisterLoss registra una merma con evidencia obligatoria. La evidencia se sube antes de escribir en el almacén.
func (uc *UseCase) RegisterLoss(ctx context.Context, req dto.LossRequest, ev *Evidence) (*Outcome, error) {
	switch {
	case strings.TrimSpace(req.Responsible) == "":
		return nil, domain.Validation("responsable obligatorio")
	case strings.TrimSpace(req.Reason) == "":
		return nil, domain.Validation("motivo obligatorio")
	case !req.Quantity.IsPositive():
		return nil, domain.Validation("cantidad debe ser > 0")
	case ev == nil || ev.Body == nil || ev.Size <= 0:
		return nil, domain.Validation("la foto de evidencia es obligatoria")
	}
	if uc.evidence == nil {
		return nil, domain.Configuration("almacén de evidencias no configurado (GCS_BUCKET)")
	}
	date, err := uc.operationDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	item, err := uc.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	before := snapshot([]*entity.StockItem{item})
	mov, err := uc.ledger.ApplyConsumption(item, req.Quantity, entity.MovementLoss)
	if err != nil {
		return nil, err
	}

	folder := "perdidas/" + date.Format("2006-01")
	filename := fmt.Sprintf("%s_%s%s", item.ID, date.Format("20060102T150405"), path.Ext(ev.Filename))
	url, err := uc.evidence.Upload(ctx, folder, filename, ev.ContentType, ev.Body)
	if err != nil {
		return nil, fmt.Errorf("subir evidencia: %w", err)
	}

	movs := []entity.Movement{mov}
	uc.stamp(movs, date, req.Responsible, fmt.Sprintf("Pérdida: %s | evidencia: %s", req.Reason, url))
	if err := uc.persist(ctx, "perdida", item.ID, []*entity.StockItem{item}, before, movs); err != nil {
		return nil, err
	}
	return &Outcome{Items: []*entity.StockItem{item}, Movements: movs}, nil
}

// RegisterAudit ajusta varios insumos a su conteo físico con una sola actualización de saldos
// y una sola escritura al kardex. Los insumos sin diferencia no generan movimiento.
func (uc *UseCase) RegisterAudit(ctx context.Context, req dto.AuditRequest) (*Outcome, error) {
	if strings.TrimSpace(req.Responsible) == "" {
		return nil, domain.Validation("responsable obligatorio")
	}
	if len(req.Counts) == 0 {
		return nil, domain.Validation("la auditoría no tiene conteos")
	}
	seen := make(map[string]bool, len(req.Counts))
	for _, c := range req.Counts {
		if c.ItemID == "" {
			return nil, domain.Validation("conteo sin item_id")
		}
		if seen[c.ItemID] {
			return nil, domain.Validation("insumo %s contado dos veces", c.ItemID)
		}
		if c.PhysicalCount.IsNegative() {
			return nil, domain.Validation("conteo físico negativo para %s", c.ItemID)
		}
		seen[c.ItemID] = true
	}
	date, err := uc.operationDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, err
	}

	var changed, before []*entity.StockItem
	var movs []entity.Movement
	for _, c := range req.Counts {
		item, ok := byID[c.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: insumo %s", domain.ErrNotFound, c.ItemID)
		}
		snap := *item
		mov, err := uc.ledger.ApplyAuditAdjustment(item, c.PhysicalCount)
		if err != nil {
			return nil, err
		}
		if mov == nil {
			continue
		}
		changed = append(changed, item)
		before = append(before, &snap)
		movs = append(movs, *mov)
	}
	out := &Outcome{Items: changed, Movements: movs}
	if len(movs) == 0 {
		out.Warnings = append(out.Warnings, "sin diferencias contra el libro")
		return out, nil
	}
	uc.stamp(movs, date, req.Responsible, "Auditoría física")
	if err := uc.persist(ctx, "auditoria", "", changed, before, movs); err != nil {
		return nil, err
	}
	uc.log.Info().Int("adjusted", len(movs)).Int("counted", len(req.Counts)).Msg("auditoría aplicada")
	return out, nil
}

// RunProduction produce un lote de una subreceta: descuenta sus insumos y da entrada al producto
// con costo = costo del lote / cantidad producida.
func (uc *UseCase) RunProduction(ctx context.Context, req dto.ProductionRequest) (*Outcome, error) {
	if strings.TrimSpace(req.Responsible) == "" {
		return nil, domain.Validation("responsable obligatorio")
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad producida %s", domain.ErrDivision, req.Quantity)
	}
	date, err := uc.operationDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	lines, err := uc.recipes.GetLines(ctx, entity.RecipeSubRecipe, req.OutputItemID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.Validation("%s no tiene subreceta", req.OutputItemID)
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, err
	}
	output, ok := byID[req.OutputItemID]
	if !ok {
		return nil, fmt.Errorf("%w: insumo %s", domain.ErrNotFound, req.OutputItemID)
	}
	touched := []*entity.StockItem{output}
	inputs := make([]inventory.ProductionInput, 0, len(lines))
	for _, l := range lines {
		it, ok := byID[l.IngredientID]
		if !ok {
			return nil, fmt.Errorf("%w: insumo %s (%s) de la subreceta %s", domain.ErrNotFound, l.IngredientName, l.IngredientID, output.Name)
		}
		inputs = append(inputs, inventory.ProductionInput{Item: it, QuantityPerUnit: l.QuantityPerUnit})
		touched = append(touched, it)
	}
	touched = dedupe(touched)
	before := snapshot(touched)

	res, err := uc.ledger.ApplyProductionCycle(output, req.Quantity, inputs)
	if err != nil {
		return nil, err
	}
	movs := append(append([]entity.Movement{}, res.Consumed...), res.Output)
	uc.stamp(movs, date, req.Responsible, fmt.Sprintf("Producción %s x%s", output.Name, req.Quantity))
	if err := uc.persist(ctx, "produccion", output.ID, touched, before, movs); err != nil {
		return nil, err
	}
	uc.log.Info().Str("item_id", output.ID).Str("batch_cost", res.BatchCost.String()).
		Str("unit_cost", res.UnitCost.String()).Msg("producción registrada")
	return &Outcome{Items: touched, Movements: movs}, nil
}

// ApplySaleConsumption descarga del inventario los insumos de un plato vendido.
func (uc *UseCase) ApplySaleConsumption(ctx context.Context, dishID string, unitsSold decimal.Decimal, responsible string) (*Outcome, error) {
	return uc.ApplySales(ctx, []SaleLine{{DishID: dishID, Units: unitsSold}}, uc.now(), responsible)
}

// ApplySales explota la receta de cada plato vendido en movimientos SALE_CONSUMPTION.
// Un plato sin receta o un insumo inexistente se reporta como advertencia y no bloquea el resto.
func (uc *UseCase) ApplySales(ctx context.Context, sales []SaleLine, at time.Time, responsible string) (*Outcome, error) {
	if responsible == "" {
		responsible = "sistema"
	}
	for _, s := range sales {
		if !s.Units.IsPositive() {
			return nil, domain.Validation("unidades vendidas de %s deben ser > 0", s.DishID)
		}
	}
	date, err := uc.operationDate(ctx, &at)
	if err != nil {
		return nil, err
	}
	all, err := uc.recipes.All(ctx, entity.RecipeDish)
	if err != nil {
		return nil, err
	}
	byOwner := make(map[string][]entity.RecipeLine)
	for _, l := range all {
		byOwner[l.OwnerID] = append(byOwner[l.OwnerID], l)
	}
	byID, err := uc.itemIndex(ctx)
	if err != nil {
		return nil, err
	}

	// Se acumula por insumo: dos platos que comparten insumo producen un solo movimiento.
	out := &Outcome{}
	var touched []*entity.StockItem
	snaps := make(map[string]entity.StockItem)
	need := make(map[string]decimal.Decimal)
	details := make(map[string][]string)
	for _, s := range sales {
		lines := byOwner[s.DishID]
		if len(lines) == 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("plato %s %s sin receta", s.DishID, s.DishName))
			continue
		}
		name := s.DishName
		if name == "" {
			name = lines[0].OwnerName
		}
		label := fmt.Sprintf("%s x%s", name, s.Units)
		for _, l := range lines {
			it, ok := byID[l.IngredientID]
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("insumo %s de %s no existe", l.IngredientID, name))
				continue
			}
			if _, ok := snaps[it.ID]; !ok {
				snaps[it.ID] = *it
				touched = append(touched, it)
			}
			need[it.ID] = need[it.ID].Add(l.QuantityPerUnit.Mul(s.Units))
			if d := details[it.ID]; len(d) == 0 || d[len(d)-1] != label {
				details[it.ID] = append(d, label)
			}
		}
	}
	for _, it := range touched {
		mov, err := uc.ledger.ApplyConsumption(it, need[it.ID], entity.MovementSaleConsumption)
		if err != nil {
			return nil, err
		}
		mov.Detail = "Venta " + strings.Join(details[it.ID], ", ")
		out.Movements = append(out.Movements, mov)
	}
	for _, w := range out.Warnings {
		uc.log.Warn().Str("operation", "descargue_ventas").Msg(w)
	}
	if len(out.Movements) == 0 {
		return out, nil
	}
	before := make([]*entity.StockItem, 0, len(touched))
	for _, it := range touched {
		snap := snaps[it.ID]
		before = append(before, &snap)
	}
	uc.stamp(out.Movements, date, responsible, "")
	if err := uc.persist(ctx, "descargue_ventas", "", touched, before, out.Movements); err != nil {
		return nil, err
	}
	out.Items = touched
	return out, nil
}

// ── Consultas ──────────────────────────────────────────────────────────────

// Movements lee el kardex: de un insumo si itemID no es vacío, si no los últimos tail (50 por defecto).
func (uc *UseCase) Movements(ctx context.Context, itemID string, tail int) ([]entity.Movement, error) {
	if tail <= 0 {
		tail = 50
	}
	if itemID == "" {
		return uc.journal.Tail(ctx, tail)
	}
	movs, err := uc.journal.FilterByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(movs) > tail {
		movs = movs[len(movs)-tail:]
	}
	return movs, nil
}

// Reconcile reconstruye el saldo de un insumo desde el kardex y lo compara con el libro.
func (uc *UseCase) Reconcile(ctx context.Context, itemID string) (inventory.Reconciliation, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return inventory.Reconciliation{}, err
	}
	movs, err := uc.journal.FilterByItem(ctx, itemID)
	if err != nil {
		return inventory.Reconciliation{}, err
	}
	rec := inventory.Reconcile(item, movs)
	if !rec.Consistent {
		uc.log.Warn().Str("item_id", itemID).Str("ledger", rec.LedgerBalance.String()).
			Str("replayed", rec.ReplayedBalance.String()).Msg("libro y kardex no coinciden")
	}
	return rec, nil
}

// ── Soporte ────────────────────────────────────────────────────────────────

// operationDate fecha local de la operación; rechaza fechas anteriores al lanzamiento.
func (uc *UseCase) operationDate(ctx context.Context, at *time.Time) (time.Time, error) {
	date := uc.now().In(uc.loc)
	if at != nil && !at.IsZero() {
		date = at.In(uc.loc)
	}
	cfg, err := uc.config.Load(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("cargar configuración: %w", err)
	}
	if cfg.Locked(date) {
		return time.Time{}, fmt.Errorf("%w: %s es anterior a %s", domain.ErrPeriodLocked,
			date.Format("2006-01-02"), cfg.LaunchDate.Format("2006-01-02"))
	}
	return date, nil
}

func (uc *UseCase) stamp(movs []entity.Movement, date time.Time, responsible, detail string) {
	for i := range movs {
		movs[i].ID = uc.newID()
		movs[i].Date = date
		movs[i].Responsible = responsible
		if movs[i].Detail == "" {
			movs[i].Detail = detail
		}
	}
}

func (uc *UseCase) itemIndex(ctx context.Context) (map[string]*entity.StockItem, error) {
	items, err := uc.items.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.StockItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID, nil
}

// balanceStep escribe los saldos nuevos; si un paso posterior falla restaura los anteriores.
func (uc *UseCase) balanceStep(changed, before []*entity.StockItem) saga.Step {
	return saga.Step{
		Name: "saldos",
		Do:   func(ctx context.Context) error { return uc.items.SaveBalances(ctx, changed) },
		Undo: func(ctx context.Context) error { return uc.items.SaveBalances(ctx, before) },
	}
}

func (uc *UseCase) journalStep(movs []entity.Movement) func(context.Context) error {
	return func(ctx context.Context) error { return uc.journal.Record(ctx, movs...) }
}

func (uc *UseCase) persist(ctx context.Context, op, itemID string, changed, before []*entity.StockItem, movs []entity.Movement) error {
	return saga.New(op, uc.log).ForItem(itemID).
		AddStep(uc.balanceStep(changed, before)).
		Add("kardex", uc.journalStep(movs)).
		Run(ctx)
}

func purchaseUnit(in dto.PurchaseUnitInput) units.PurchaseUnit {
	return units.PurchaseUnit{
		Category:     units.Category(strings.ToUpper(in.Category)),
		Label:        in.Label,
		PackageSize:  in.PackageSize,
		PackageCount: in.PackageCount,
	}
}

func snapshot(items []*entity.StockItem) []*entity.StockItem {
	out := make([]*entity.StockItem, len(items))
	for i, it := range items {
		c := *it
		out[i] = &c
	}
	return out
}

func dedupe(items []*entity.StockItem) []*entity.StockItem {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}
