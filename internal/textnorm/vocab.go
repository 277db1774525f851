package textnorm

import "strings"

// Token vocabularies for normalization and feature classification. The
// Chinese sets mirror the marketing language seen on jd/taobao/xiaohongshu
// style listings; the Latin filler list covers the equivalent English noise.

// generalStopwords are common Chinese function words plus marketing terms
// ("genuine", "free shipping", "special price") that carry no product
// identity.
var generalStopwords = newSet(
	"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都", "一", "一个", "上", "也", "很",
	"到", "说", "要", "去", "你", "会", "着", "没有", "看", "好", "自己", "这", "那", "现在", "可以",
	"但是", "因为", "所以", "如果", "虽然", "然后", "还是", "或者", "已经", "应该", "可能", "只是",
	"正品", "包邮", "特价", "促销", "折扣", "优惠", "限时", "秒杀", "抢购", "新品", "热销",
)

// productStopwords are product-listing boilerplate terms ("goods",
// "flagship store", "in stock") that appear on most listings regardless of
// what is being sold.
var productStopwords = newSet(
	"商品", "产品", "物品", "货物", "东西", "用品", "器具", "设备", "装置", "工具", "配件",
	"正品", "全新", "原装", "品牌", "专柜", "官方", "授权", "直营", "旗舰店", "专营店",
	"包邮", "现货", "库存", "有货", "缺货", "预售", "定制",
)

// colorVocab is the fixed color vocabulary for feature classification.
var colorVocab = newSet(
	"黑", "白", "红", "蓝", "绿", "黄", "紫", "粉", "灰", "橙", "棕", "银", "金",
	"黑色", "白色", "红色", "蓝色", "绿色", "黄色", "紫色", "粉色", "灰色",
	"橙色", "棕色", "银色", "金色", "透明", "彩色",
)

// materialVocab is the fixed material vocabulary for feature classification.
var materialVocab = newSet(
	"塑料", "金属", "不锈钢", "铝合金", "碳纤维", "玻璃", "陶瓷", "硅胶", "橡胶",
	"皮革", "真皮", "人造革", "布料", "棉", "丝绸", "尼龙", "聚酯", "木质", "竹制",
)

// latinFillers are English marketing fillers dropped by the Latin pipeline.
var latinFillers = newSet("new", "original", "genuine", "official", "brand", "item")

// unitSuffixes are measurement units stripped from quantity tokens so that
// "256GB" and "256G" normalize to the same token.
var unitSuffixes = newSet(
	"b", "kb", "mb", "gb", "tb",
	"g", "kg", "mg", "lb", "oz",
	"ml", "l", "cl",
	"mm", "cm", "m", "km", "in", "inch", "ft",
	"w", "kw", "v", "mv", "mah", "wh",
	"hz", "khz", "mhz", "ghz",
	"pcs", "pc", "ct",
)

type set map[string]struct{}

func newSet(items ...string) set {
	s := make(set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

// containsAny reports whether token contains any vocabulary entry as a
// substring. Used for color/material matching where compounds like "深蓝色"
// should still classify.
func (s set) containsAny(token string) bool {
	if s.has(token) {
		return true
	}
	for entry := range s {
		if strings.Contains(token, entry) {
			return true
		}
	}
	return false
}
