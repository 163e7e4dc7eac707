package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pepmenu/storefront/session"
)

// ErrOrderNotFound é retornado quando o pedido não existe
var ErrOrderNotFound = errors.New("order not found")

// StorageProvider entrega o armazenamento chave-valor de cada sessão
type StorageProvider interface {
	ForSession(sessionID string) session.Storage

	// HasSession informa se a sessão já foi aberta ou tem dados gravados
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// MemoryStorageProvider mantém um armazenamento em memória por sessão
type MemoryStorageProvider struct {
	mu       sync.Mutex
	sessions map[string]*session.MemoryStorage
}

// NewMemoryStorageProvider cria um provedor em memória
func NewMemoryStorageProvider() *MemoryStorageProvider {
	return &MemoryStorageProvider{sessions: make(map[string]*session.MemoryStorage)}
}

func (p *MemoryStorageProvider) ForSession(sessionID string) session.Storage {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[sessionID]
	if !ok {
		s = session.NewMemoryStorage()
		p.sessions[sessionID] = s
	}
	return s
}

func (p *MemoryStorageProvider) HasSession(_ context.Context, sessionID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sessions[sessionID]
	return ok, nil
}

// SQLStorage implementa o armazenamento chave-valor sobre database/sql.
// Funciona com PostgreSQL (lib/pq) e SQLite (modernc).
type SQLStorage struct {
	db      *sql.DB
	dialect string
}

// NewSQLStorage cria o armazenamento e garante que a tabela existe
func NewSQLStorage(ctx context.Context, db *sql.DB, dialect string) (*SQLStorage, error) {
	s := &SQLStorage{db: db, dialect: dialect}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS session_storage (
			session_id  TEXT NOT NULL,
			storage_key TEXT NOT NULL,
			value       TEXT NOT NULL,
			updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, storage_key)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create session_storage table: %w", err)
	}
	return s, nil
}

// ForSession retorna a visão do armazenamento restrita à sessão
func (s *SQLStorage) ForSession(sessionID string) session.Storage {
	return &sessionStorage{store: s, sessionID: sessionID}
}

// HasSession informa se há alguma chave gravada para a sessão
func (s *SQLStorage) HasSession(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM session_storage WHERE session_id = ?
	`), sessionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}
	return n > 0, nil
}

// Get busca o valor de uma chave da sessão
func (s *SQLStorage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT value FROM session_storage WHERE session_id = ? AND storage_key = ?
	`), sessionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set grava (ou substitui) o valor de uma chave da sessão
func (s *SQLStorage) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO session_storage (session_id, storage_key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (session_id, storage_key)
		DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`), sessionID, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// rebind troca os marcadores "?" por "$n" no PostgreSQL
func (s *SQLStorage) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type sessionStorage struct {
	store     *SQLStorage
	sessionID string
}

func (s *sessionStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.sessionID, key)
}

func (s *sessionStorage) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.sessionID, key, value)
}

// OrderArchive guarda os pedidos finalizados de todas as sessões
type OrderArchive interface {
	// SaveOrder registra um pedido finalizado
	SaveOrder(ctx context.Context, sessionID string, order session.Order) error

	// ListOrderIDs lista os códigos de pedido que começam com o prefixo
	ListOrderIDs(ctx context.Context, prefix string) ([]string, error)

	// ListSessionOrders lista os pedidos da sessão, do mais recente para o mais antigo
	ListSessionOrders(ctx context.Context, sessionID string) ([]session.Order, error)

	// UpdateOrderStatus altera o status e retorna a sessão dona do pedido
	UpdateOrderStatus(ctx context.Context, orderID string, status session.OrderStatus, at time.Time) (string, error)
}

type archivedOrder struct {
	sessionID string
	order     session.Order
}

// MemoryOrderArchive implementa OrderArchive em memória
type MemoryOrderArchive struct {
	mu     sync.RWMutex
	orders map[string]archivedOrder
}

// NewMemoryOrderArchive cria um arquivo de pedidos vazio
func NewMemoryOrderArchive() *MemoryOrderArchive {
	return &MemoryOrderArchive{orders: make(map[string]archivedOrder)}
}

func (a *MemoryOrderArchive) SaveOrder(_ context.Context, sessionID string, order session.Order) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.orders[order.ID]; exists {
		return fmt.Errorf("order %s already archived", order.ID)
	}
	a.orders[order.ID] = archivedOrder{sessionID: sessionID, order: order}
	return nil
}

func (a *MemoryOrderArchive) ListOrderIDs(_ context.Context, prefix string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.orders))
	for id := range a.orders {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *MemoryOrderArchive) ListSessionOrders(_ context.Context, sessionID string) ([]session.Order, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var orders []session.Order
	for _, o := range a.orders {
		if o.sessionID == sessionID {
			orders = append(orders, o.order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Date.Equal(orders[j].Date) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].Date.After(orders[j].Date)
	})
	return orders, nil
}

func (a *MemoryOrderArchive) UpdateOrderStatus(_ context.Context, orderID string, status session.OrderStatus, at time.Time) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.orders[orderID]
	if !ok {
		return "", ErrOrderNotFound
	}
	o.order.Status = status
	o.order.StatusUpdatedAt = &at
	a.orders[orderID] = o
	return o.sessionID, nil
}

// PostgresOrderArchive implementa OrderArchive usando PostgreSQL
type PostgresOrderArchive struct {
	db *pgxpool.Pool
}

// NewPostgresOrderArchive cria uma nova instância de PostgresOrderArchive
func NewPostgresOrderArchive(db *pgxpool.Pool) *PostgresOrderArchive {
	return &PostgresOrderArchive{db: db}
}

// Migrate cria a tabela de pedidos se ainda não existir
func (r *PostgresOrderArchive) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id                TEXT PRIMARY KEY,
			session_id        TEXT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL,
			status            TEXT NOT NULL,
			status_updated_at TIMESTAMPTZ,
			total             NUMERIC(12, 2) NOT NULL,
			payload           JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_orders_session ON orders (session_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate orders table: %w", err)
	}
	return nil
}

// SaveOrder grava o pedido com os itens serializados em JSONB
func (r *PostgresOrderArchive) SaveOrder(ctx context.Context, sessionID string, order session.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (id, session_id, created_at, status, status_updated_at, total, payload)
		VALUES ($1, $2, $3, $4, $5, CAST($6 AS TEXT)::NUMERIC, $7)
	`, order.ID, sessionID, order.Date, string(order.Status), order.StatusUpdatedAt, order.Total.StringFixed(2), string(payload))
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	return nil
}

// ListOrderIDs lista os códigos com o prefixo informado
func (r *PostgresOrderArchive) ListOrderIDs(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM orders WHERE id LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list order ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan order ids: %w", err)
	}
	return ids, nil
}

// ListSessionOrders busca o histórico da sessão
func (r *PostgresOrderArchive) ListSessionOrders(ctx context.Context, sessionID string) ([]session.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT payload, status, status_updated_at
		FROM orders
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session orders: %w", err)
	}
	defer rows.Close()

	var orders []session.Order
	for rows.Next() {
		var (
			payload         []byte
			status          string
			statusUpdatedAt *time.Time
		)
		if err := rows.Scan(&payload, &status, &statusUpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		var order session.Order
		if err := json.Unmarshal(payload, &order); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		order.Status = session.OrderStatus(status)
		order.StatusUpdatedAt = statusUpdatedAt
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus atualiza o status de um pedido
func (r *PostgresOrderArchive) UpdateOrderStatus(ctx context.Context, orderID string, status session.OrderStatus, at time.Time) (string, error) {
	var sessionID string
	err := r.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $1, status_updated_at = $2
		WHERE id = $3
		RETURNING session_id
	`, string(status), at, orderID).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	return sessionID, nil
}
