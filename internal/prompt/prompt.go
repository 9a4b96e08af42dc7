// Package prompt renders the reading prompts sent to the language models
// from structured form input.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownKind  = errors.New("unknown prompt kind")
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

// Kind selects a reading template.
type Kind string

const (
	KindAstrology    Kind = "astrology"
	KindNaming       Kind = "naming"
	KindNameAnalysis Kind = "name_analysis"
	KindBoneWeight   Kind = "bone_weight"
)

// Kinds lists the supported templates.
var Kinds = []Kind{KindAstrology, KindNaming, KindNameAnalysis, KindBoneWeight}

// Form carries the user-entered fields. Dates are YYYY-MM-DD and times HH:mm.
type Form struct {
	Kind           Kind   `json:"kind"`
	Name           string `json:"name,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Gender         string `json:"gender,omitempty"`
	BirthDate      string `json:"birthDate,omitempty"`
	BirthTime      string `json:"birthTime,omitempty"`
	Province       string `json:"province,omitempty"`
	City           string `json:"city,omitempty"`
	FatherName     string `json:"fatherName,omitempty"`
	MotherName     string `json:"motherName,omitempty"`
	NameCount      string `json:"nameCount,omitempty"`
	RecommendCount string `json:"recommendCount,omitempty"`
}

// Build renders the prompt for f.Kind. today is inserted as the reading date.
func Build(f Form, today time.Time) (string, error) {
	if err := validate(f); err != nil {
		return "", err
	}
	date := today.Format("2006/1/2")
	switch f.Kind {
	case KindAstrology:
		return astrology(f, date), nil
	case KindNaming:
		return naming(f, date), nil
	case KindNameAnalysis:
		return nameAnalysis(f, date), nil
	case KindBoneWeight:
		return boneWeight(f, date), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
}

func required(k Kind) []string {
	switch k {
	case KindAstrology:
		return []string{"name", "gender", "birthDate", "birthTime"}
	case KindNaming:
		return []string{"lastName", "gender", "birthDate", "birthTime"}
	case KindNameAnalysis:
		return []string{"name", "gender", "birthDate"}
	case KindBoneWeight:
		return []string{"birthDate", "birthTime"}
	}
	return nil
}

func (f Form) field(name string) string {
	switch name {
	case "name":
		return f.Name
	case "lastName":
		return f.LastName
	case "gender":
		return f.Gender
	case "birthDate":
		return f.BirthDate
	case "birthTime":
		return f.BirthTime
	}
	return ""
}

func validate(f Form) error {
	req := required(f.Kind)
	if req == nil {
		return fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
	}
	for _, name := range req {
		if strings.TrimSpace(f.field(name)) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	if f.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", f.BirthDate); err != nil {
			return fmt.Errorf("%w: birthDate %q", ErrInvalidField, f.BirthDate)
		}
	}
	if f.BirthTime != "" {
		if _, err := time.Parse("15:04", f.BirthTime); err != nil {
			return fmt.Errorf("%w: birthTime %q", ErrInvalidField, f.BirthTime)
		}
	}
	return nil
}

func genderLabel(g string) string {
	if strings.EqualFold(g, "male") {
		return "男"
	}
	return "女"
}

func astrology(f Form, date string) string {
	info := fmt.Sprintf("姓名：%s，性别：%s，出生时间：%s %s，出生地点：%s%s",
		f.Name, genderLabel(f.Gender), f.BirthDate, f.BirthTime, f.Province, f.City)
	return fmt.Sprintf(`假设你是一位著名的星座大师，给我进行星座和运势分析，我的信息：%s。
先根据我的出生日期和时间计算太阳星座，月亮星座，上升星座。
请根据的星座特征，结合 MBTI 性格分析，描述这个星座的典型性格特征、优缺点、适合的职业、恋爱风格，并提供 3 条建议帮助他们更好地成长。
结合星座和塔罗牌，请提供运势解析，并给予实用建议。
今天是 %s, 提供今年，今月，今日运势，幸运数，幸运色。
语言生动、有趣，带点幽默感。`, info, date)
}

func naming(f Form, date string) string {
	nameCount := orDefault(f.NameCount, "2")
	recommend := orDefault(f.RecommendCount, "10")
	var info strings.Builder
	fmt.Fprintf(&info, "姓氏：%s，性别：%s，出生时间：%s %s，农历：%s %s",
		f.LastName, genderLabel(f.Gender), f.BirthDate, f.BirthTime, LunarDate(f.BirthDate), HourBranch(f.BirthTime))
	if f.FatherName != "" {
		fmt.Fprintf(&info, "，父亲姓名：%s", f.FatherName)
	}
	if f.MotherName != "" {
		fmt.Fprintf(&info, "，母亲姓名：%s", f.MotherName)
	}
	fmt.Fprintf(&info, "，期望字数：%s字，推荐数量：%s个", nameCount, recommend)
	return fmt.Sprintf(`假设你是一位精通起名、八字和星座的大师，请帮我取名，我的信息：%s。

请按照以下方面进行分析和起名：
1. 八字分析：根据出生时间分析八字特征
2. 五行分析：分析五行缺失和喜用神
3. 星座分析：分析星座特征和性格倾向
4. 姓名学分析：结合姓氏分析音律、字形、五行搭配

根据以上分析，推荐%s个高分名字，每个名字需要：
1. 完整解释名字的寓意
2. 分析名字的五行配置
3. 与八字的契合度
4. 与星座特征的呼应
5. 音律和美感分析
6. 综合评分（满分100分）
7. 对未来发展的影响

今天是 %s, 请用专业且通俗易懂的语言进行分析。`, info.String(), recommend, date)
}

func nameAnalysis(f Form, date string) string {
	info := fmt.Sprintf("姓名：%s，性别：%s，出生时间：%s，农历：%s",
		f.Name, genderLabel(f.Gender), f.BirthDate, LunarDate(f.BirthDate))
	return fmt.Sprintf(`假设你是一位精通姓名学、八字和星座的大师，给我进行姓名分析，我的信息：%s。

请按照以下方面进行分析：
1. 姓名五行分析
2. 姓名三才配置
3. 姓名笔画分析
4. 结合生辰八字分析姓名契合度
5. 结合星座特征分析姓名寓意
6. 姓名对个人发展的影响
7. 给出姓名综合评分（满分100分）

最后请根据以上分析，结合生辰八字、星座特征，推荐10个高分候选名字(2个字或者3个字)，并说明每个名字的寓意和评分。

今天是 %s, 请用专业且通俗易懂的语言进行分析。`, info, date)
}

func boneWeight(f Form, date string) string {
	info := fmt.Sprintf("出生日期：%s，出生时间：%s，农历：%s %s",
		f.BirthDate, f.BirthTime, LunarDate(f.BirthDate), HourBranch(f.BirthTime))
	return fmt.Sprintf("今天是 %s，个人信息如下：%s。请根据骨重算命理论，分析此人的命理，并提供相应的建议。", date, info)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
