package canonical

// Field 一个键值对
type Field struct {
	Key   string
	Value Value
}

// Params 按插入顺序保存的参数集
// 签名用的字符串和实际发送的字符串都由它渲染，顺序必须稳定
type Params struct {
	fields []Field
}

// NewParams 创建参数集
func NewParams(fields ...Field) Params {
	var p Params
	for _, f := range fields {
		p.Set(f.Key, f.Value)
	}
	return p
}

// Set 设置参数；已存在的键原位替换，保持首次出现的位置
// 副本之间不共享底层数组，修改副本不会影响原参数集
func (p *Params) Set(key string, v Value) *Params {
	fields := make([]Field, len(p.fields), len(p.fields)+1)
	copy(fields, p.fields)
	for i := range fields {
		if fields[i].Key == key {
			fields[i].Value = v
			p.fields = fields
			return p
		}
	}
	p.fields = append(fields, Field{Key: key, Value: v})
	return p
}

// Get 获取参数
func (p Params) Get(key string) (Value, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Delete 删除参数
func (p *Params) Delete(key string) {
	for i, f := range p.fields {
		if f.Key == key {
			fields := make([]Field, 0, len(p.fields)-1)
			fields = append(fields, p.fields[:i]...)
			p.fields = append(fields, p.fields[i+1:]...)
			return
		}
	}
}

func (p Params) Len() int { return len(p.fields) }

func (p Params) IsEmpty() bool { return len(p.fields) == 0 }

// Keys 按插入顺序返回所有键
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p.fields))
	for _, f := range p.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Fields 返回字段副本
func (p Params) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// MarshalJSON 与 Body 输出一致，便于嵌入其它 JSON 结构
func (p Params) MarshalJSON() ([]byte, error) {
	return []byte(Body(p)), nil
}

func (p Params) clone() Params {
	return Params{fields: p.Fields()}
}
