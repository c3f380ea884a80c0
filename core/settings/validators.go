package settings

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
)

// InitValidators registers the settings enum tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnum(validate, translator, "entitytype", entity.Types...)
	core.RegisterEnum(validate, translator, "snacktype", snackTypes...)
	core.RegisterEnum(validate, translator, "lunchtype", lunchTypes...)
	core.RegisterEnum(validate, translator, "themetype", themeTypes...)
}
