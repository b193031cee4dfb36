// Package narrative 提供文本生成能力
// 包括角色描述、世界开场故事和游戏主持人的回复
package narrative

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"storyforge/internal/model"
)

// DefaultReply 默认的主持人回复
const DefaultReply = "Интересный поворот! Ваш персонаж оказывается перед сложным выбором..."

// QuickPrompts 空故事时给玩家的开场建议
var QuickPrompts = []string{
	"Расскажи о мире, в котором мы играем",
	"Начни с загадочного события",
	"Создай эпическое приключение",
}

// Picker 从 n 个候选中选一个，返回 [0, n) 内的下标
type Picker func(n int) int

// RandomPicker 基于 math/rand 的 Picker，可并发使用
func RandomPicker() Picker {
	var mu sync.Mutex
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		return r.Intn(n)
	}
}

// Templates 基于固定模板池的文本生成
type Templates struct {
	pick Picker
}

// NewTemplates 创建模板生成器，pick 为 nil 时随机选择
func NewTemplates(pick Picker) *Templates {
	if pick == nil {
		pick = RandomPicker()
	}
	return &Templates{pick: pick}
}

var characterTemplates = []string{
	"%s — загадочный странник, чьё прошлое скрыто туманом. Говорят, в дорожной сумке хранится карта, ведущая к забытому королевству.",
	"%s вырос(ла) на окраине большого города и с детства мечтал(а) о подвигах. Острый ум и упрямство не раз спасали в безвыходных ситуациях.",
	"Бывший страж древнего ордена, %s покинул(а) службу после таинственного происшествия и теперь ищет ответы на вопросы, которые лучше не задавать.",
	"%s владеет редким даром слышать голоса прошлого. Этот дар одновременно и благословение, и проклятие.",
}

var worldTemplates = []string{
	"В мире \"%[1]s\" начинается новая эра. %[2]s Главный герой обнаруживает древний артефакт, который изменит судьбу всего мира...",
	"Легенды говорят о %[1]s, где %[2]s. Тёмные силы пробуждаются, и только избранный сможет противостоять надвигающейся угрозе...",
	"%[1]s — место, где %[2]s. Таинственный странник прибывает в город на закате, неся весть о грядущих переменах...",
	"В %[1]s, где %[2]s, происходит нечто невероятное. Пророчество древних начинает сбываться...",
}

var genreHooks = map[model.Genre]string{
	model.GenreFantasy:   "Магия снова просыпается в древних камнях.",
	model.GenreSciFi:     "Сигналы с дальних станций становятся всё тревожнее.",
	model.GenreHorror:    "С наступлением ночи в домах гаснет свет, и никто не знает почему.",
	model.GenreMystery:   "Каждый здесь хранит свою тайну.",
	model.GenreRomance:   "Две судьбы вот-вот пересекутся.",
	model.GenreAdventure: "Дорога зовёт тех, кто не боится неизвестности.",
}

// CharacterDescription 根据名称生成角色描述
func (t *Templates) CharacterDescription(name string) string {
	tpl := characterTemplates[t.pick(len(characterTemplates))]
	return fmt.Sprintf(tpl, strings.TrimSpace(name))
}

// WorldSeed 生成世界的开场故事
// 参数:
//   - name: 世界名称
//   - description: 世界描述
//   - genre: 世界类型
//
// 返回:
//   - string: 开场故事
func (t *Templates) WorldSeed(name, description string, genre model.Genre) string {
	tpl := worldTemplates[t.pick(len(worldTemplates))]
	seed := fmt.Sprintf(tpl, name, description)
	if hook, ok := genreHooks[genre]; ok {
		seed += " " + hook
	}
	return seed
}

// ReplyRequest 生成回复所需的上下文
type ReplyRequest struct {
	Story     *model.Story     // 发送时的故事快照
	Character *model.Character // 故事所属角色，可能为 nil
	UserText  string           // 玩家刚发送的内容
	Settings  model.Settings   // 玩家的偏好设置
}

// ReplyGenerator 游戏主持人的回复生成能力
// 可以替换为真实的模型调用
type ReplyGenerator interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}

// TemplateReply 总是返回固定文本的回复生成器
type TemplateReply struct {
	Text string
}

// NewTemplateReply 创建固定回复生成器，text 为空时使用 DefaultReply
func NewTemplateReply(text string) *TemplateReply {
	if strings.TrimSpace(text) == "" {
		text = DefaultReply
	}
	return &TemplateReply{Text: text}
}

// Reply 返回固定文本
func (g *TemplateReply) Reply(ctx context.Context, _ ReplyRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.Text, nil
}
