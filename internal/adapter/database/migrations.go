package database

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrações do domínio que as tags do AutoMigrate não expressam de forma
// portável: índice parcial de vínculos ativos, unicidade de email sem caixa
// e CHECK do tipo de usuário.
//
//go:embed migrations/*.sql
var domainMigrations embed.FS

// Dialetos reconhecidos no sufixo do arquivo (0001_nome.postgres.sql)
var migrationDialects = map[string]bool{"sqlite": true, "postgres": true, "mysql": true}

// Migration registra um arquivo .sql já aplicado
type Migration struct {
	ID        uint  `gorm:"primaryKey"`
	Version   int64 `gorm:"uniqueIndex"`
	Name      string
	Source    string `gorm:"size:20"`
	Checksum  string `gorm:"size:64"`
	AppliedAt time.Time
}

func (Migration) TableName() string {
	return "schema_migrations"
}

// MigrationFile é um arquivo .sql escolhido para o dialeto em uso.
// Dialect vazio vale para todos os bancos.
type MigrationFile struct {
	Version int64
	Name    string
	Dialect string
	Source  string
	Path    string

	fsys fs.FS
}

const migrationTemplate = `-- Migração: %s
-- Criada em: %s
--
-- Comandos separados por ponto e vírgula, executados em uma única transação.
-- Para um banco específico renomeie para <versão>_<nome>.<postgres|mysql|sqlite>.sql;
-- o arquivo específico substitui o genérico de mesma versão.

`

// MigrationManager aplica as migrações embutidas do domínio e, depois delas,
// as do diretório configurado. Versões não podem se repetir entre as fontes.
type MigrationManager struct {
	db        *gorm.DB
	logger    *zap.Logger
	directory string
	embedded  fs.FS
}

func NewMigrationManager(db *gorm.DB, logger *zap.Logger, directory string) *MigrationManager {
	embedded, err := fs.Sub(domainMigrations, "migrations")
	if err != nil {
		// Só acontece se o diretório embutido sumir do pacote
		panic(err)
	}

	return &MigrationManager{
		db:        db,
		logger:    logger,
		directory: directory,
		embedded:  embedded,
	}
}

func (m *MigrationManager) dialect() string {
	if m.db == nil || m.db.Dialector == nil {
		return ""
	}
	return m.db.Dialector.Name()
}

// Initialize cria a tabela schema_migrations
func (m *MigrationManager) Initialize(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("falha ao criar tabela de migrações: %w", err)
	}
	return nil
}

// ApplyMigrations aplica em ordem de versão as migrações ainda não registradas.
// Cada arquivo roda em uma transação; a primeira falha interrompe o processo.
func (m *MigrationManager) ApplyMigrations(ctx context.Context) error {
	if err := m.Initialize(ctx); err != nil {
		return err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	files, err := m.findMigrationFiles()
	if err != nil {
		return fmt.Errorf("falha ao listar arquivos de migração: %w", err)
	}

	count := 0
	for _, file := range files {
		content, err := fs.ReadFile(file.fsys, file.Path)
		if err != nil {
			return fmt.Errorf("falha ao ler migração %d: %w", file.Version, err)
		}
		checksum := sqlChecksum(content)

		if previous, ok := applied[file.Version]; ok {
			if previous.Checksum != "" && previous.Checksum != checksum {
				m.logger.Warn("Migração já aplicada foi alterada depois da aplicação",
					zap.Int64("version", file.Version),
					zap.String("name", file.Name),
					zap.String("source", file.Source))
			}
			continue
		}

		if err := m.apply(ctx, file, string(content), checksum); err != nil {
			return err
		}
		count++
	}

	m.logger.Info("Migrações SQL verificadas",
		zap.String("dialect", m.dialect()),
		zap.Int("available", len(files)),
		zap.Int("applied_now", count))
	return nil
}

func (m *MigrationManager) apply(ctx context.Context, file MigrationFile, content, checksum string) error {
	m.logger.Info("Aplicando migração",
		zap.Int64("version", file.Version),
		zap.String("name", file.Name),
		zap.String("source", file.Source),
		zap.String("dialect", file.Dialect))

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, statement := range splitSQLCommands(content) {
			if err := tx.Exec(statement).Error; err != nil {
				return err
			}
		}

		return tx.Create(&Migration{
			Version:   file.Version,
			Name:      file.Name,
			Source:    file.Source,
			Checksum:  checksum,
			AppliedAt: time.Now(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("falha ao aplicar migração %d_%s: %w", file.Version, file.Name, err)
	}

	return nil
}

func (m *MigrationManager) applied(ctx context.Context) (map[int64]Migration, error) {
	var rows []Migration
	if err := m.db.WithContext(ctx).Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("falha ao buscar migrações aplicadas: %w", err)
	}

	applied := make(map[int64]Migration, len(rows))
	for _, row := range rows {
		applied[row.Version] = row
	}
	return applied, nil
}

// MigrationStatus descreve uma migração disponível e se já foi aplicada
type MigrationStatus struct {
	MigrationFile
	AppliedAt *time.Time
	Modified  bool
}

// Status lista as migrações disponíveis para o dialeto em uso
func (m *MigrationManager) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	files, err := m.findMigrationFiles()
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(files))
	for _, file := range files {
		status := MigrationStatus{MigrationFile: file}
		if previous, ok := applied[file.Version]; ok {
			appliedAt := previous.AppliedAt
			status.AppliedAt = &appliedAt

			if content, err := fs.ReadFile(file.fsys, file.Path); err == nil && previous.Checksum != "" {
				status.Modified = previous.Checksum != sqlChecksum(content)
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// findMigrationFiles junta as fontes, descarta arquivos de outros dialetos e
// ordena por versão. Um arquivo do dialeto substitui o genérico da mesma versão.
func (m *MigrationManager) findMigrationFiles() ([]MigrationFile, error) {
	type source struct {
		name string
		fsys fs.FS
	}

	sources := []source{{name: "embedded", fsys: m.embedded}}
	if m.directory != "" {
		if _, err := os.Stat(m.directory); err == nil {
			sources = append(sources, source{name: "directory", fsys: os.DirFS(m.directory)})
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	dialect := m.dialect()
	byVersion := make(map[int64]MigrationFile)

	for _, src := range sources {
		if src.fsys == nil {
			continue
		}

		err := fs.WalkDir(src.fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
				return nil
			}

			file, ok := parseMigrationName(d.Name())
			if !ok {
				m.logger.Warn("Nome de arquivo de migração inválido",
					zap.String("file", d.Name()),
					zap.String("source", src.name))
				return nil
			}
			if file.Dialect != "" && dialect != "" && file.Dialect != dialect {
				return nil
			}
			file.Source = src.name
			file.Path = p
			file.fsys = src.fsys

			previous, exists := byVersion[file.Version]
			switch {
			case !exists:
				byVersion[file.Version] = file
			case previous.Source == file.Source && previous.Dialect == "" && file.Dialect != "":
				byVersion[file.Version] = file
			case previous.Source == file.Source && previous.Dialect != "" && file.Dialect == "":
			default:
				return fmt.Errorf("versão de migração %d duplicada: %s (%s) e %s (%s)",
					file.Version, previous.Path, previous.Source, file.Path, file.Source)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	files := make([]MigrationFile, 0, len(byVersion))
	for _, file := range byVersion {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})
	return files, nil
}

// parseMigrationName interpreta <versão>_<nome>[.<dialeto>].sql
func parseMigrationName(filename string) (MigrationFile, bool) {
	base := strings.TrimSuffix(path.Base(filename), ".sql")

	versionPart, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return MigrationFile{}, false
	}

	version, err := strconv.ParseInt(versionPart, 10, 64)
	if err != nil || version <= 0 {
		return MigrationFile{}, false
	}

	file := MigrationFile{Version: version, Name: name}
	if i := strings.LastIndexByte(name, '.'); i > 0 && migrationDialects[name[i+1:]] {
		file.Name = name[:i]
		file.Dialect = name[i+1:]
	}
	return file, true
}

func sqlChecksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// splitSQLCommands divide o arquivo em comandos. Ponto e vírgula dentro de
// strings ('...', com '' como escape) e de comentários não separa comandos.
// Comandos vazios são descartados.
func splitSQLCommands(sql string) []string {
	const (
		code = iota
		quoted
		lineComment
		blockComment
	)

	var (
		commands []string
		current  strings.Builder
		state    = code
	)

	flush := func() {
		if statement := strings.TrimSpace(current.String()); statement != "" && !onlyComments(statement) {
			commands = append(commands, statement)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		next := byte(0)
		if i+1 < len(sql) {
			next = sql[i+1]
		}

		switch state {
		case code:
			switch {
			case ch == '-' && next == '-':
				state = lineComment
			case ch == '/' && next == '*':
				state = blockComment
			case ch == '\'':
				state = quoted
			case ch == ';':
				current.WriteByte(ch)
				flush()
				continue
			}
		case quoted:
			if ch == '\'' {
				if next == '\'' {
					current.WriteString("''")
					i++
					continue
				}
				state = code
			}
		case lineComment:
			if ch == '\n' {
				state = code
			}
		case blockComment:
			if ch == '*' && next == '/' {
				current.WriteString("*/")
				i++
				state = code
				continue
			}
		}

		current.WriteByte(ch)
	}

	flush()
	return commands
}

// onlyComments indica um trecho sem SQL, como o cabeçalho de um arquivo
func onlyComments(statement string) bool {
	for _, line := range strings.Split(statement, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

// CreateMigration cria um arquivo vazio no diretório configurado
func (m *MigrationManager) CreateMigration(name string) (string, error) {
	if m.directory == "" {
		return "", fmt.Errorf("diretório de migrações não configurado")
	}

	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if name == "" {
		return "", fmt.Errorf("nome da migração é obrigatório")
	}

	if err := os.MkdirAll(m.directory, 0755); err != nil {
		return "", fmt.Errorf("falha ao criar diretório: %w", err)
	}

	now := time.Now()
	target := filepath.Join(m.directory, fmt.Sprintf("%s_%s.sql", now.Format("20060102150405"), name))

	content := fmt.Sprintf(migrationTemplate, name, now.Format(time.RFC3339))
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("falha ao criar arquivo: %w", err)
	}

	m.logger.Info("Arquivo de migração criado", zap.String("path", target))
	return target, nil
}
