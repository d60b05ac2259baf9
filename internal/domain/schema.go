package domain

import (
	"encoding/json"
	"fmt"
)

// FieldKind — тип поля конфигурации этапа.
//
// Закрытое множество видов полей. Backend передаёт тип строкой;
// панель диспетчеризует рендеринг и проверку через switch по FieldKind,
// а не по сырой строке.
type FieldKind string

const (
	// FieldKindText — однострочный текст.
	FieldKindText FieldKind = "text"

	// FieldKindMultiline — многострочный текст.
	FieldKindMultiline FieldKind = "multiline"

	// FieldKindNumber — число с опциональными границами.
	FieldKindNumber FieldKind = "number"

	// FieldKindBool — булев флаг.
	FieldKindBool FieldKind = "bool"

	// FieldKindSelect — выбор из фиксированного списка значений.
	FieldKindSelect FieldKind = "select"
)

// ParseFieldKind парсит строку в FieldKind.
// Неизвестные типы трактуются как text — панель должна переживать
// появление новых типов на backend без падения.
func ParseFieldKind(s string) FieldKind {
	switch s {
	case "text":
		return FieldKindText
	case "multiline", "textarea":
		return FieldKindMultiline
	case "number", "int", "float":
		return FieldKindNumber
	case "bool", "boolean", "checkbox":
		return FieldKindBool
	case "select", "enum":
		return FieldKindSelect
	default:
		return FieldKindText
	}
}

// Field — метаданные одного поля конфигурации этапа.
type Field struct {
	// Name — имя поля (ключ в defaults и override-карте).
	Name string `json:"name"`

	// Kind — вид поля.
	Kind FieldKind `json:"kind"`

	// Label — подпись поля для панели.
	Label string `json:"label,omitempty"`

	// Category — группа полей (вкладка/секция панели).
	Category string `json:"category,omitempty"`

	// Hint — подсказка для рендеринга.
	Hint string `json:"hint,omitempty"`

	// Min — нижняя граница для number-полей.
	Min *float64 `json:"min,omitempty"`

	// Max — верхняя граница для number-полей.
	Max *float64 `json:"max,omitempty"`

	// Options — допустимые значения для select-полей.
	Options []string `json:"options,omitempty"`
}

// UnmarshalJSON декодирует поле схемы, нормализуя сырой тип backend
// в закрытое множество FieldKind.
func (f *Field) UnmarshalJSON(data []byte) error {
	type rawField struct {
		Name     string    `json:"name"`
		Type     string    `json:"type"`
		Kind     FieldKind `json:"kind"`
		Label    string    `json:"label"`
		Category string    `json:"category"`
		Hint     string    `json:"hint"`
		Min      *float64  `json:"min"`
		Max      *float64  `json:"max"`
		Options  []string  `json:"options"`
	}

	var raw rawField
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Name = raw.Name
	f.Label = raw.Label
	f.Category = raw.Category
	f.Hint = raw.Hint
	f.Min = raw.Min
	f.Max = raw.Max
	f.Options = raw.Options

	// API панели передаёт уже нормализованный kind, backend — сырой type.
	if raw.Kind != "" {
		f.Kind = ParseFieldKind(string(raw.Kind))
	} else {
		f.Kind = ParseFieldKind(raw.Type)
	}

	return nil
}

// Check проверяет значение против метаданных поля.
//
// Движок слияния конфигураций значения не проверяет — это работа
// потребителя схемы (панель перед отправкой, CLI при --set).
func (f *Field) Check(value any) error {
	switch f.Kind {
	case FieldKindText, FieldKindMultiline:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %s: expected string, got %T", f.Name, value)
		}
		return nil

	case FieldKindNumber:
		n, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("field %s: expected number, got %T", f.Name, value)
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Errorf("field %s: %v below minimum %v", f.Name, n, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Errorf("field %s: %v above maximum %v", f.Name, n, *f.Max)
		}
		return nil

	case FieldKindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %s: expected bool, got %T", f.Name, value)
		}
		return nil

	case FieldKindSelect:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: expected string, got %T", f.Name, value)
		}
		for _, opt := range f.Options {
			if s == opt {
				return nil
			}
		}
		return fmt.Errorf("field %s: %q is not one of the allowed options", f.Name, s)

	default:
		return fmt.Errorf("field %s: unknown field kind %q", f.Name, f.Kind)
	}
}

// toFloat приводит числовые представления JSON/Go к float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// StageSchema — схема конфигурации одного этапа.
//
// Загружается с backend один раз при первом выборе этапа
// и кэшируется на время сессии.
type StageSchema struct {
	// Stage — имя этапа, которому принадлежит схема.
	Stage string `json:"stage"`

	// ConfigClass — имя класса конфигурации на стороне backend.
	ConfigClass string `json:"config_class,omitempty"`

	// Fields — поля конфигурации.
	Fields []Field `json:"fields"`

	// Categories — порядок групп полей для панели.
	Categories []string `json:"categories,omitempty"`
}

// FieldByName возвращает поле схемы по имени.
func (s *StageSchema) FieldByName(name string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}
