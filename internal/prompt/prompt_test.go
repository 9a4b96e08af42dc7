package prompt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var today = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

func TestHourBranch(t *testing.T) {
	cases := map[string]string{
		"23:30": "子时",
		"00:10": "子时",
		"01:00": "丑时",
		"02:59": "丑时",
		"11:00": "午时",
		"12:45": "午时",
		"13:00": "未时",
		"22:00": "亥时",
		"24:00": "",
		"xx":    "",
		"":      "",
	}
	for in, want := range cases {
		if got := HourBranch(in); got != want {
			t.Errorf("HourBranch(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildAstrology(t *testing.T) {
	p, err := Build(Form{Kind: KindAstrology, Name: "张三", Gender: "male", BirthDate: "1990-05-01", BirthTime: "08:30", Province: "广东省", City: "深圳市"}, today)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"星座大师", "姓名：张三，性别：男，出生时间：1990-05-01 08:30，出生地点：广东省深圳市", "今天是 2025/3/7"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildNaming(t *testing.T) {
	p, err := Build(Form{Kind: KindNaming, LastName: "李", Gender: "female", BirthDate: "2024-12-01", BirthTime: "23:15", FatherName: "李四", NameCount: "3", RecommendCount: "5"}, today)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"姓氏：李，性别：女", "农历：2024年11月1日 子时", "父亲姓名：李四", "期望字数：3字", "推荐5个高分名字"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "母亲姓名") {
		t.Error("empty mother name should be omitted")
	}
}

func TestBuildDefaultsAndOtherKinds(t *testing.T) {
	p, err := Build(Form{Kind: KindNaming, LastName: "王", Gender: "male", BirthDate: "2024-01-01", BirthTime: "09:00"}, today)
	if err != nil || !strings.Contains(p, "推荐10个高分名字") || !strings.Contains(p, "期望字数：2字") {
		t.Fatalf("defaults: %v\n%s", err, p)
	}
	p, err = Build(Form{Kind: KindNameAnalysis, Name: "王五", Gender: "male", BirthDate: "1988-08-08"}, today)
	if err != nil || !strings.Contains(p, "姓名三才配置") || !strings.Contains(p, "农历：1988年") {
		t.Fatalf("name analysis: %v\n%s", err, p)
	}
	p, err = Build(Form{Kind: KindBoneWeight, BirthDate: "1988-08-08", BirthTime: "15:20"}, today)
	if err != nil || !strings.Contains(p, "骨重") || !strings.Contains(p, "农历：1988年") || !strings.Contains(p, "申时") {
		t.Fatalf("bone weight: %v\n%s", err, p)
	}
}

func TestLunarDate(t *testing.T) {
	cases := map[string]string{
		"2025-01-29": "2025年1月1日",
		"2024-12-01": "2024年11月1日",
		"2023-03-22": "2023年闰2月1日",
		"2024-02-09": "2023年12月30日",
		"":           "",
		"2024-13-01": "",
	}
	for in, want := range cases {
		if got := LunarDate(in); got != want {
			t.Errorf("LunarDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		form Form
		want error
	}{
		{Form{Kind: "tarot"}, ErrUnknownKind},
		{Form{Kind: KindAstrology, Gender: "male", BirthDate: "1990-01-01", BirthTime: "01:00"}, ErrMissingField},
		{Form{Kind: KindNameAnalysis, Name: "x", Gender: "male", BirthDate: "1990/01/01"}, ErrInvalidField},
		{Form{Kind: KindBoneWeight, BirthDate: "1990-01-01", BirthTime: "25:00"}, ErrInvalidField},
	}
	for _, c := range cases {
		if _, err := Build(c.form, today); !errors.Is(err, c.want) {
			t.Errorf("%+v: err = %v, want %v", c.form, err, c.want)
		}
	}
}
