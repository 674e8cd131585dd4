package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/obra-tokens/internal/domain"
)

// TrabalhadorRepository guarda o diretório de trabalhadores e a trilha de migração de códigos.
type TrabalhadorRepository struct {
	db *gorm.DB
}

func NewTrabalhadorRepository(db *gorm.DB) *TrabalhadorRepository {
	return &TrabalhadorRepository{db: db}
}

func (r *TrabalhadorRepository) FindByCodigo(ctx context.Context, codigo string) (domain.Trabalhador, error) {
	return buscarTrabalhador(r.db.WithContext(ctx), codigo)
}

func buscarTrabalhador(tx *gorm.DB, codigo string) (domain.Trabalhador, error) {
	var t domain.Trabalhador
	if err := tx.Where("code = ?", codigo).Take(&t).Error; err != nil {
		err = traduzirNaoEncontrado(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trabalhador{}, err
		}
		return domain.Trabalhador{}, fmt.Errorf("gorm trabalhadores: buscar %s: %w", codigo, err)
	}
	return t, nil
}

// travarTrabalhador lê com FOR UPDATE; quem chega depois espera o commit de quem travou.
func travarTrabalhador(tx *gorm.DB, codigo string) (domain.Trabalhador, error) {
	return buscarTrabalhador(tx.Clauses(clause.Locking{Strength: "UPDATE"}), codigo)
}

func (r *TrabalhadorRepository) FindMany(ctx context.Context, codigos []string) (map[string]domain.Trabalhador, error) {
	out := make(map[string]domain.Trabalhador, len(codigos))
	if len(codigos) == 0 {
		return out, nil
	}
	var lista []domain.Trabalhador
	if err := r.db.WithContext(ctx).Where("code IN ?", codigos).Find(&lista).Error; err != nil {
		return nil, fmt.Errorf("gorm trabalhadores: buscar varios: %w", err)
	}
	for _, t := range lista {
		out[t.Codigo] = t
	}
	return out, nil
}

var escapeLike = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *TrabalhadorRepository) BuscarPorNome(ctx context.Context, prefixoLower string, limite int) ([]domain.Trabalhador, error) {
	lista := []domain.Trabalhador{}
	if err := r.db.WithContext(ctx).
		Where(`full_name_lower LIKE ? ESCAPE '\'`, escapeLike.Replace(prefixoLower)+"%").
		Order("full_name_lower ASC").
		Limit(limite).
		Find(&lista).Error; err != nil {
		return nil, fmt.Errorf("gorm trabalhadores: buscar por nome: %w", err)
	}
	return lista, nil
}

// Migrar troca a chave legada pela canônica numa transação única; concorrentes convergem no mesmo registro.
func (r *TrabalhadorRepository) Migrar(ctx context.Context, m domain.MigracaoTrabalhador, projeto domain.Projeto) (domain.Trabalhador, bool, error) {
	var (
		resultado domain.Trabalhador
		migrado   bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		atual, err := buscarTrabalhador(tx, m.CodigoCanonico)
		if err == nil {
			resultado = atual
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		legado, err := travarTrabalhador(tx, m.CodigoLegado)
		if errors.Is(err, domain.ErrNotFound) {
			// Quem segurava a trava já migrou; o canônico dele está visível agora.
			resultado, err = buscarTrabalhador(tx, m.CodigoCanonico)
			return err
		}
		if err != nil {
			return err
		}

		novo := legado
		novo.Codigo = m.CodigoCanonico
		if projeto != "" {
			novo.Projeto = projeto
		}
		if novo.NomeCompletoLower == "" {
			novo.NomeCompletoLower = strings.ToLower(novo.NomeCompleto)
		}
		novo.AtualizadoEm = m.CriadoEm

		criado := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&novo)
		if criado.Error != nil {
			return fmt.Errorf("gorm trabalhadores: criar canonico: %w", criado.Error)
		}
		if criado.RowsAffected == 0 {
			// Outro processo migrou primeiro; o canônico dele prevalece.
			resultado, err = buscarTrabalhador(tx, m.CodigoCanonico)
			return err
		}

		if err := tx.Where("code = ?", m.CodigoLegado).Delete(&domain.Trabalhador{}).Error; err != nil {
			return fmt.Errorf("gorm trabalhadores: remover legado: %w", err)
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("gorm trabalhadores: auditoria: %w", err)
		}
		resultado = novo
		migrado = true
		return nil
	})
	if err != nil {
		return domain.Trabalhador{}, false, err
	}
	return resultado, migrado, nil
}

// Upsert olha a chave canônica e a legada na mesma transação, então um recadastro nunca duplica a pessoa.
// Se uma migração concorrente criar o canônico no meio do caminho, o cadastro vira atualização.
func (r *TrabalhadorRepository) Upsert(ctx context.Context, t domain.Trabalhador, m domain.MigracaoTrabalhador) (domain.Trabalhador, domain.ResultadoCadastro, error) {
	var resultado domain.ResultadoCadastro
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		atual, err := buscarTrabalhador(tx, t.Codigo)
		switch {
		case err == nil:
			resultado = domain.CadastroAtualizado
			return atualizarPerfil(tx, &t, atual)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		temLegado := false
		if m.CodigoLegado != t.Codigo {
			legado, err := travarTrabalhador(tx, m.CodigoLegado)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if err == nil {
				temLegado = true
				t.CriadoEm = legado.CriadoEm
			}
		}

		criado := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&t)
		if criado.Error != nil {
			return fmt.Errorf("gorm trabalhadores: inserir: %w", criado.Error)
		}
		if criado.RowsAffected == 0 {
			atual, err := buscarTrabalhador(tx, t.Codigo)
			if err != nil {
				return err
			}
			resultado = domain.CadastroAtualizado
			return atualizarPerfil(tx, &t, atual)
		}

		if !temLegado {
			resultado = domain.CadastroCriado
			return nil
		}
		if err := tx.Where("code = ?", m.CodigoLegado).Delete(&domain.Trabalhador{}).Error; err != nil {
			return fmt.Errorf("gorm trabalhadores: remover legado: %w", err)
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("gorm trabalhadores: auditoria: %w", err)
		}
		resultado = domain.CadastroMigrado
		return nil
	})
	if err != nil {
		return domain.Trabalhador{}, "", err
	}
	return t, resultado, nil
}

// atualizarPerfil grava os campos editáveis preservando a data de criação do registro existente.
func atualizarPerfil(tx *gorm.DB, t *domain.Trabalhador, atual domain.Trabalhador) error {
	t.CriadoEm = atual.CriadoEm
	if err := tx.Model(&domain.Trabalhador{}).Where("code = ?", t.Codigo).Updates(map[string]any{
		"project":         t.Projeto,
		"full_name":       t.NomeCompleto,
		"full_name_lower": t.NomeCompletoLower,
		"company_id":      t.EmpresaID,
		"updated_at":      t.AtualizadoEm,
	}).Error; err != nil {
		return fmt.Errorf("gorm trabalhadores: atualizar: %w", err)
	}
	return nil
}

// ListLegados pagina por código: depois é o último código da página anterior ("" começa do início).
func (r *TrabalhadorRepository) ListLegados(ctx context.Context, depois string, limite int) ([]domain.Trabalhador, error) {
	lista := []domain.Trabalhador{}
	if err := r.db.WithContext(ctx).
		Where("code LIKE ? AND code > ?", "%-%", depois).
		Order("code ASC").
		Limit(limite).
		Find(&lista).Error; err != nil {
		return nil, fmt.Errorf("gorm trabalhadores: listar legados: %w", err)
	}
	return lista, nil
}

var _ domain.TrabalhadorRepository = (*TrabalhadorRepository)(nil)
