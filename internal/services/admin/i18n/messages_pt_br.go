package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "layout.title", "%s | Administração de features")
	message.SetString(lang, "nav.features", "Features")
	message.SetString(lang, "nav.cohorts", "Coortes")
	message.SetString(lang, "nav.lang_en", "English")
	message.SetString(lang, "nav.lang_pt_br", "Português (Brasil)")

	message.SetString(lang, "features.title", "Features")
	message.SetString(lang, "features.column.name", "Feature")
	message.SetString(lang, "features.column.everyone", "Todos")
	message.SetString(lang, "features.column.staff", "Equipe")
	message.SetString(lang, "features.column.admins", "Admins")
	message.SetString(lang, "features.column.cohorts", "Coortes")
	message.SetString(lang, "features.save", "Salvar alterações")
	message.SetString(lang, "features.empty", "Nenhuma feature definida.")

	message.SetString(lang, "cohorts.title", "Coortes")
	message.SetString(lang, "cohorts.add_label", "Nova coorte")
	message.SetString(lang, "cohorts.add_button", "Adicionar coorte")
	message.SetString(lang, "cohorts.empty", "Nenhuma coorte ainda.")
	message.SetString(lang, "cohort.title", "Coorte %s")
	message.SetString(lang, "cohort.members", "Membros")
	message.SetString(lang, "cohort.no_members", "Esta coorte não tem membros.")
	message.SetString(lang, "cohort.username", "Usuário")
	message.SetString(lang, "cohort.add_member", "Adicionar membro")
	message.SetString(lang, "cohort.remove_member", "Remover")
	message.SetString(lang, "cohort.back", "Todas as coortes")

	message.SetString(lang, "flash.changes_saved", "Alterações salvas.")
	message.SetString(lang, "flash.cohort_created", "Coorte %s criada.")
	message.SetString(lang, "flash.member_added", "%s adicionado.")
	message.SetString(lang, "flash.member_removed", "%s removido.")

	message.SetString(lang, "error.feature_unknown", "Feature desconhecida.")
	message.SetString(lang, "error.cohort_not_found", "Coorte não encontrada.")
	message.SetString(lang, "error.cohort_name_empty", "O nome da coorte é obrigatório.")
	message.SetString(lang, "error.cohort_name_taken", "Já existe uma coorte com esse nome.")
	message.SetString(lang, "error.user_not_found", "Usuário não encontrado")
	message.SetString(lang, "error.username_empty", "O nome de usuário é obrigatório.")
	message.SetString(lang, "error.csrf_invalid", "Token CSRF inválido ou ausente.")
	message.SetString(lang, "error.method_not_allowed", "Método não permitido.")
	message.SetString(lang, "error.internal", "Algo deu errado. Tente novamente.")
}
